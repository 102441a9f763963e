package domain

// OrderFilter narrows and paginates order listings.
type OrderFilter struct {
	Status     *OrderStatus
	CustomerID *int
	WorkerID   *int
	Page       int
	Limit      int
	SortDesc   bool
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

func (f *OrderFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
}

func (f *OrderFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
