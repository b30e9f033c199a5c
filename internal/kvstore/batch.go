package kvstore

import "context"

// Mutation is a staged write. Deleted mutations carry no value.
type Mutation struct {
	Key     string
	Value   []byte
	Deleted bool
}

// Batch stages writes on top of committed state. Reads observe the batch's
// own writes first. Backends without native transactions commit
// Mutations() atomically once the update function succeeds.
type Batch struct {
	read    ReadFunc
	pending map[string]int
	muts    []Mutation
}

func NewBatch(read ReadFunc) *Batch {
	return &Batch{read: read, pending: make(map[string]int)}
}

func (b *Batch) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if i, ok := b.pending[key]; ok {
		m := b.muts[i]
		if m.Deleted {
			return nil, false, nil
		}
		return clone(m.Value), true, nil
	}
	return b.read(ctx, key)
}

func (b *Batch) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := b.Get(ctx, key)
	return ok, err
}

func (b *Batch) Set(_ context.Context, key string, value []byte) error {
	b.stage(Mutation{Key: key, Value: clone(value)})
	return nil
}

func (b *Batch) Delete(_ context.Context, key string) error {
	b.stage(Mutation{Key: key, Deleted: true})
	return nil
}

// Mutations returns the last staged write per key, in first-write order.
func (b *Batch) Mutations() []Mutation {
	return b.muts
}

func (b *Batch) stage(m Mutation) {
	if i, ok := b.pending[m.Key]; ok {
		b.muts[i] = m
		return
	}
	b.pending[m.Key] = len(b.muts)
	b.muts = append(b.muts, m)
}

func clone(v []byte) []byte {
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

// ReadOnly adapts a ReadFunc into a Tx that rejects writes.
func ReadOnly(read ReadFunc) Tx {
	return readOnlyTx{read: read}
}

type readOnlyTx struct {
	read ReadFunc
}

func (t readOnlyTx) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return t.read(ctx, key)
}

func (t readOnlyTx) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := t.read(ctx, key)
	return ok, err
}

func (readOnlyTx) Set(context.Context, string, []byte) error { return ErrReadOnly }
func (readOnlyTx) Delete(context.Context, string) error { return ErrReadOnly }
