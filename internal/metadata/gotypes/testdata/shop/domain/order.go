package domain

import (
	"time"

	"example.com/shop/money"
)

type Entity struct {
	ID string
}

type Aggregate interface {
	Version() int
}

type Order struct {
	Entity
	Customer *Customer
	Lines    []OrderLine
	Total    money.Amount
	Tags     map[string]Tag
	PlacedAt time.Time
	status   Status
}

func NewOrder(c *Customer) *Order {
	return &Order{Customer: c}
}

func (o *Order) Version() int { return 1 }

func (o *Order) Submit(method PaymentMethod) (Receipt, error) {
	var audit AuditEntry
	audit.At = time.Now()
	_ = audit
	return Receipt{}, nil
}

type OrderLine struct {
	Product Product
	Qty     int
}

func NewOrderLine(p Product) OrderLine {
	return OrderLine{Product: p, Qty: 1}
}

type Product struct {
	SKU string
}

type Customer struct {
	Name   string
	Orders []*Order
}

type Receipt struct{}

type PaymentMethod int

type Status string

type Tag struct {
	Label string
}

type AuditEntry struct {
	At time.Time
}

type OrderList []Order

type Worker struct {
	done   chan struct{}
	Meta   map[string]any
	Hooks  []func()
	Events []struct{ Name string }
	Grid   [][]Tag
}

type Repository[T any] struct {
	items []T
}

func (r *Repository[T]) All() []T { return r.items }
