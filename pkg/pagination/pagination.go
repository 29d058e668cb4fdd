package pagination

import (
	"gorm.io/gorm"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 50
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds skip/limit pagination inputs from controllers or services.
type Params struct {
	Skip  int
	Limit int
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize clamps both fields into range.
func (p Params) Normalize() Params {
	if p.Skip < 0 {
		p.Skip = 0
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

// Scope applies the page to a GORM query.
func (p Params) Scope(db *gorm.DB) *gorm.DB {
	n := p.Normalize()
	return db.Offset(n.Skip).Limit(n.Limit)
}
