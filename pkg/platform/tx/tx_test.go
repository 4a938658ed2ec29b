package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEmptyContext(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)
}

func TestWithNilTxKeepsContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithTx(ctx, nil))
}

func TestRoundTrip(t *testing.T) {
	want := &sql.Tx{}
	got, ok := From(WithTx(context.Background(), want))
	assert.True(t, ok)
	assert.Same(t, want, got)
}
