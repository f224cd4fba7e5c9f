package ledger

import "context"

// Overlay reads through to a base ledger but keeps its own records in
// memory, so a dry run sees what is already posted without writing.
type Overlay struct {
	base    Ledger
	pending *Memory
}

// NewOverlay wraps base. Close closes base.
func NewOverlay(base Ledger) *Overlay {
	return &Overlay{base: base, pending: NewMemory()}
}

func (o *Overlay) Exists(ctx context.Context, id string) (bool, error) {
	if o.pending.has(id) {
		return true, nil
	}
	return o.base.Exists(ctx, id)
}

func (o *Overlay) Record(ctx context.Context, id string) error {
	return o.pending.Record(ctx, id)
}

// Pending returns how many ids were recorded in the overlay only.
func (o *Overlay) Pending() int {
	return o.pending.Len()
}

func (o *Overlay) Close() error {
	return o.base.Close()
}
