package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType distinguishes money entering the cash box from money leaving it.
// The wire values are the Spanish terms the backend stores.
type MovementType string

// Movement types.
const (
	MovementIncome  MovementType = "ingreso"
	MovementExpense MovementType = "gasto"
)

// Valid reports whether the type is one the backend accepts.
func (t MovementType) Valid() bool {
	return t == MovementIncome || t == MovementExpense
}

// MovementOrigin records how a movement was created.
type MovementOrigin string

// Movement origins.
const (
	OriginManual MovementOrigin = "manual"
	OriginScan   MovementOrigin = "escaneo"
)

// Movement is a single recorded cash change. Immutable once created, except
// for an amount edit which must carry a value different from the current one.
type Movement struct {
	Date   time.Time
	Type   MovementType
	Origin MovementOrigin
	Amount decimal.Decimal
	ID     int64
}

// Balance is the cash box total. It is derived server-side as the running sum
// over all movements; the client only ever holds a cached copy.
type Balance struct {
	Total decimal.Decimal
}

// Denomination is a banknote face value and the count of bills held of it.
type Denomination struct {
	Value    decimal.Decimal
	Quantity int
	ID       int64
}
