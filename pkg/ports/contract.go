package ports

import (
	"testing"

	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs a suite of tests to verify that a Store implementation
// adheres to the defined interface contract. The store must be fresh.
func RunStoreContract(t *testing.T, store Store) {
	valid := &domain.Result{
		DataArray:  []any{1, 2},
		Dimensions: [][]domain.Member{{{Caption: "Amount"}}, {{Caption: "2020", Path: "[Date].&[2020]"}}},
		Info:       &domain.Info{LeftHeaderColumnsNumber: 1, TopHeaderRowsNumber: 1},
	}
	other := &domain.Result{
		DataArray:  []any{3},
		Dimensions: [][]domain.Member{{}, {}},
		Info:       &domain.Info{},
	}

	t.Run("Validation", func(t *testing.T) {
		assert.True(t, store.IsValid(valid))
		assert.False(t, store.IsValid(nil), "nil result")
		assert.False(t, store.IsValid(&domain.Result{Error: "boom", DataArray: []any{}, Dimensions: [][]domain.Member{}, Info: &domain.Info{}}), "error-bearing result")
		assert.False(t, store.IsValid(&domain.Result{DataArray: []any{}, Dimensions: [][]domain.Member{}}), "missing info")
		assert.False(t, store.IsValid(&domain.Result{Dimensions: [][]domain.Member{}, Info: &domain.Info{}}), "missing rows")
	})

	t.Run("Set and Get", func(t *testing.T) {
		require.Equal(t, 1, store.Depth())
		store.SetData(valid)
		assert.Same(t, valid, store.Data())
	})

	t.Run("Push and Pop", func(t *testing.T) {
		store.PushData()
		assert.Equal(t, 2, store.Depth())
		store.SetData(other)
		assert.Same(t, other, store.Data())

		store.PopData()
		assert.Equal(t, 1, store.Depth())
		assert.Same(t, valid, store.Data(), "pop restores the previous slot")
	})

	t.Run("Pop Root", func(t *testing.T) {
		store.PopData()
		store.PopData()
		assert.Equal(t, 1, store.Depth(), "root slot is never dropped")
		assert.Same(t, valid, store.Data())
	})
}
