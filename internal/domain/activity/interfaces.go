package activity

import "context"

// Repository stores console events.
type Repository interface {
	Append(ctx context.Context, entry *ActivityEntry) error
	Recent(ctx context.Context, q Query) ([]ActivityEntry, error)
}
