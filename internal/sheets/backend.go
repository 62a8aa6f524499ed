package sheets

import "context"

// Backend is a spreadsheet addressed by A1 ranges.
// Values are positional rows of strings; no schema is enforced.
type Backend interface {
	FindByTitle(ctx context.Context, title string) (id string, ok bool, err error)
	Create(ctx context.Context, title, tab string) (string, error)
	Update(ctx context.Context, id, rng string, values [][]string) error
	Append(ctx context.Context, id, rng string, values [][]string) (updatedRange string, err error)
	Read(ctx context.Context, id, rng string) ([][]string, error)
}
