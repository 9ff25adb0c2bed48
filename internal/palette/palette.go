// Package palette assigns display colours to modules.
//
// The first eight modules of a build receive a fixed set of well separated
// colours. Later modules draw from a larger named palette with a seeded
// sampler, and fall back to generated hues once that palette runs out.
package palette

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a "#rrggbb" hex colour.
type Color string

func (c Color) String() string { return string(c) }

// Foreground returns the inverted colour, used for text drawn on c.
func (c Color) Foreground() Color {
	parsed, err := colorful.Hex(string(c))
	if err != nil {
		return "#000000"
	}
	inverted := colorful.Color{R: 1 - parsed.R, G: 1 - parsed.G, B: 1 - parsed.B}
	return Color(inverted.Hex())
}

// Entry is one legend row.
type Entry struct {
	Module string `json:"module"`
	Color  Color  `json:"color"`
}

// Fixed is the ordered palette handed to the first modules of a build.
var Fixed = []Color{
	"#008b8b", // DarkCyan
	"#c71585", // MediumVioletRed
	"#008000", // Green
	"#ffff00", // Yellow
	"#ff6347", // Tomato
	"#00ffff", // Aqua
	"#9932cc", // DarkOrchid
	"#000080", // Navy
}

const goldenAngle = 137.50776405003785

// Assigner hands out one colour per module in first-seen order.
// It is not safe for concurrent use; a build owns its assigner.
type Assigner struct {
	colors map[string]Color
	order  []string
	used   map[Color]bool
	pool   []Color
	rng    *rand.Rand
	hue    int
}

// NewAssigner creates an assigner whose sampling is driven by seed.
// Equal seeds yield equal assignments for equal module sequences.
func NewAssigner(seed uint64) *Assigner {
	return &Assigner{
		colors: make(map[string]Color),
		used:   make(map[Color]bool),
		pool:   candidates(),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// ColorFor returns the colour of module, assigning one on first use.
func (a *Assigner) ColorFor(module string) Color {
	if c, ok := a.colors[module]; ok {
		return c
	}

	var c Color
	if n := len(a.order); n < len(Fixed) {
		c = Fixed[n]
	} else {
		c = a.sample()
	}

	a.colors[module] = c
	a.used[c] = true
	a.order = append(a.order, module)
	return c
}

// Legend returns the assignments in first-seen order.
func (a *Assigner) Legend() []Entry {
	entries := make([]Entry, 0, len(a.order))
	for _, m := range a.order {
		entries = append(entries, Entry{Module: m, Color: a.colors[m]})
	}
	return entries
}

// sample draws from the named palette, discarding rejected candidates so
// the loop always terminates.
func (a *Assigner) sample() Color {
	for len(a.pool) > 0 {
		i := a.rng.IntN(len(a.pool))
		c := a.pool[i]
		a.pool[i] = a.pool[len(a.pool)-1]
		a.pool = a.pool[:len(a.pool)-1]
		if !a.used[c] {
			return c
		}
	}
	return a.generate()
}

func (a *Assigner) generate() Color {
	for {
		a.hue++
		h := math.Mod(float64(a.hue)*goldenAngle, 360)
		c := Color(colorful.Hsv(h, 0.65, 0.85).Hex())
		if !a.used[c] {
			return c
		}
	}
}

func candidates() []Color {
	out := make([]Color, 0, len(named))
	for _, n := range named {
		if rejected(n.name) {
			continue
		}
		out = append(out, Color(strings.ToLower(n.hex)))
	}
	return out
}

func rejected(name string) bool {
	switch name {
	case "Transparent", "White", "Black":
		return true
	}
	return false
}
