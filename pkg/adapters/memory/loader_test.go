package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/lightpivot/pkg/adapters/memory"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher(t *testing.T) {
	ctx := context.Background()
	r1 := &domain.Result{DataArray: []any{1}}
	f := memory.NewFetcher(map[string]*domain.Result{"Q1": r1})

	got, err := f.Fetch(ctx, "Q1")
	require.NoError(t, err)
	assert.Same(t, r1, got)

	_, err = f.Fetch(ctx, "Q2")
	assert.ErrorIs(t, err, domain.ErrFixtureNotFound)

	r2 := &domain.Result{DataArray: []any{2}}
	f.Add("Q2", r2)
	got, err = f.Fetch(ctx, "Q2")
	require.NoError(t, err)
	assert.Same(t, r2, got)

	assert.Equal(t, []string{"Q1", "Q2", "Q2"}, f.Queries())
}

func TestFetcher_Fallback(t *testing.T) {
	fallback := &domain.Result{DataArray: []any{}}
	f := memory.NewFetcher(nil).WithFallback(ports.FetcherFunc(func(ctx context.Context, query string) (*domain.Result, error) {
		return fallback, nil
	}))

	got, err := f.Fetch(context.Background(), "anything")
	require.NoError(t, err)
	assert.Same(t, fallback, got)
}

func TestFetcher_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := memory.NewFetcher(nil).Fetch(ctx, "Q1")
	assert.ErrorIs(t, err, context.Canceled)
}
