package outbound

import "context"

// Transactor runs fn inside a single unit of work. Repositories called with
// the ctx passed to fn take part in the same transaction; fn returning an
// error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
