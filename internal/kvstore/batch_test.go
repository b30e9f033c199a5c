package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch_ReadsOwnWrites(t *testing.T) {
	ctx := context.Background()
	committed := map[string][]byte{"a": []byte("1"), "b": []byte("2")}
	b := NewBatch(func(_ context.Context, key string) ([]byte, bool, error) {
		v, ok := committed[key]
		return v, ok, nil
	})

	require.NoError(t, b.Set(ctx, "a", []byte("10")))
	require.NoError(t, b.Delete(ctx, "b"))

	v, ok, err := b.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("10"), v)

	ok, err = b.Has(ctx, "b")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []byte("1"), committed["a"])
}

func TestBatch_MutationsKeepFirstWriteOrder(t *testing.T) {
	ctx := context.Background()
	b := NewBatch(func(context.Context, string) ([]byte, bool, error) { return nil, false, nil })

	_ = b.Set(ctx, "car", []byte("x"))
	_ = b.Set(ctx, "rental", []byte("y"))
	_ = b.Set(ctx, "car", []byte("z"))
	_ = b.Delete(ctx, "rental")

	muts := b.Mutations()
	require.Len(t, muts, 2)
	assert.Equal(t, Mutation{Key: "car", Value: []byte("z")}, muts[0])
	assert.Equal(t, Mutation{Key: "rental", Deleted: true}, muts[1])
}
