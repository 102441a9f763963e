package domain

import "github.com/shopspring/decimal"

// PayoutShares are percentages of the order value going to the worker and
// the support agent; the system keeps the remainder. Fixed at order creation.
type PayoutShares struct {
	Worker  int64
	Support int64
}

var DefaultShares = PayoutShares{Worker: 80, Support: 5}

var oneHundred = decimal.NewFromInt(100)

// Split divides value between worker, support and system. Worker and support
// cuts are rounded to 2 decimal places, the system absorbs the rounding
// remainder so that worker+support+system always equals value exactly.
func (p PayoutShares) Split(value decimal.Decimal) (worker, support, system decimal.Decimal) {
	worker = value.Mul(decimal.NewFromInt(p.Worker)).Div(oneHundred).Round(2)
	support = value.Mul(decimal.NewFromInt(p.Support)).Div(oneHundred).Round(2)
	system = value.Sub(worker).Sub(support)
	return worker, support, system
}

func (p PayoutShares) Valid() bool {
	return p.Worker >= 0 && p.Support >= 0 && p.Worker+p.Support <= 100
}
