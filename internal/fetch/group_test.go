package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestRefreshAllIsolatesFailures(t *testing.T) {
	ok := NewSlot("stats", func(context.Context, Filters) (int, error) { return 42, nil })
	bad := NewSlot("activity", func(context.Context, Filters) (int, error) { return 0, errors.New("down") })
	worse := NewSlot("codes", func(context.Context, Filters) (int, error) { return 0, errors.New("timeout") })

	err := RefreshAll(context.Background(), ok, bad, worse)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, 42, ok.Data())
	assert.True(t, ok.Snapshot().Loaded)
	assert.False(t, bad.Snapshot().Loaded)
}

func TestRefreshAllSucceeds(t *testing.T) {
	a := NewSlot("a", func(context.Context, Filters) (string, error) { return "a", nil })
	b := NewSlot("b", func(context.Context, Filters) (string, error) { return "b", nil })
	require.NoError(t, RefreshAll(context.Background(), a, b, nil))
	assert.Equal(t, "a", a.Data())
	assert.Equal(t, "b", b.Data())
}
