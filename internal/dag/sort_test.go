package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deps(m map[string][]string) func(string) []string {
	return func(s string) []string { return m[s] }
}

func TestSort(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		deps  map[string][]string
		want  []string
	}{
		{
			name:  "chain",
			items: []string{"C", "A", "B"},
			deps:  map[string][]string{"A": {"B"}, "C": {"A"}},
			want:  []string{"B", "A", "C"},
		},
		{
			name:  "diamond",
			items: []string{"D"},
			deps:  map[string][]string{"D": {"B", "C"}, "B": {"A"}, "C": {"A"}},
			want:  []string{"A", "B", "C", "D"},
		},
		{
			name:  "closure includes unlisted dependencies",
			items: []string{"X"},
			deps:  map[string][]string{"X": {"Y"}, "Y": {"Z"}},
			want:  []string{"Z", "Y", "X"},
		},
		{
			name:  "duplicates emitted once",
			items: []string{"A", "A", "B"},
			deps:  map[string][]string{"B": {"A"}},
			want:  []string{"A", "B"},
		},
		{
			name:  "empty",
			items: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sort(tt.items, deps(tt.deps), true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSort_Cycle(t *testing.T) {
	cyclic := deps(map[string][]string{"A": {"B"}, "B": {"C"}, "C": {"A"}})

	_, err := Sort([]string{"A"}, cyclic, true)
	require.ErrorIs(t, err, ErrCycleDetected)

	got, err := Sort([]string{"A"}, cyclic, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, got)
	assert.Len(t, got, 3)
}

func TestSort_EveryItemAfterDependencies(t *testing.T) {
	graph := map[int][]int{
		1: {2, 3},
		2: {4},
		3: {4, 5},
		5: {6},
	}
	got, err := Sort([]int{1, 6, 3}, func(i int) []int { return graph[i] }, true)
	require.NoError(t, err)

	pos := make(map[int]int, len(got))
	for i, v := range got {
		pos[v] = i
	}
	for item, ds := range graph {
		for _, d := range ds {
			assert.Less(t, pos[d], pos[item], "%d must come before %d", d, item)
		}
	}
}
