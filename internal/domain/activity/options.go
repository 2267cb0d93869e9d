package activity

import "time"

const (
	// DefaultLimit applies when a query names no limit.
	DefaultLimit = 50
	// MaxLimit caps a single query.
	MaxLimit = 500
)

// Query selects console events, newest first. Zero fields do not filter.
type Query struct {
	SessionID string
	Types     []ActivityType
	Since     time.Time
	Limit     int
}

func (q Query) normalized() Query {
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}
	return q
}
