package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lightpivot/pkg/domain"
)

func TestOutcome_Text(t *testing.T) {
	data, err := json.Marshal(map[string]domain.Outcome{"outcome": domain.OutcomeRolledBack})
	require.NoError(t, err)
	assert.JSONEq(t, `{"outcome":"rolled_back"}`, string(data))

	var o domain.Outcome
	require.NoError(t, o.UnmarshalText([]byte("superseded")))
	assert.Equal(t, domain.OutcomeSuperseded, o)
	assert.Error(t, o.UnmarshalText([]byte("bogus")))

	assert.Equal(t, "outcome(42)", domain.Outcome(42).String())
}

func TestEvents_Kinds(t *testing.T) {
	events := []domain.Event{
		domain.DrillDownEvent{Level: 1},
		domain.DrillThroughEvent{Level: 1},
		domain.BackEvent{Level: 0},
	}
	kinds := make([]domain.EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind())
	}
	assert.Equal(t, []domain.EventKind{domain.EventDrillDown, domain.EventDrillThrough, domain.EventBack}, kinds)
}

func TestFetchError(t *testing.T) {
	err := error(&domain.FetchError{StatusCode: 500, Body: "boom"})
	assert.EqualError(t, err, "query server returned status 500: boom")

	var fe *domain.FetchError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, "query server returned status 404", (&domain.FetchError{StatusCode: 404}).Error())
}
