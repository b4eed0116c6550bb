package domain

import (
	"context"
	"time"
)

// EventKind names a trigger the host can attach a callback to.
type EventKind string

const (
	EventDrillDown    EventKind = "drillDown"
	EventDrillThrough EventKind = "drillThrough"
	EventBack         EventKind = "back"
)

// Event is a navigation event delivered to host triggers.
// The set of variants is closed; each carries its own payload shape.
type Event interface {
	Kind() EventKind
	event()
}

// DrillDownEvent is fired after a drill-down step is committed.
type DrillDownEvent struct {
	Level int    `json:"level"`
	Query string `json:"query"`
	Path  string `json:"path"`
}

func (DrillDownEvent) Kind() EventKind { return EventDrillDown }
func (DrillDownEvent) event()          {}

// DrillThroughEvent is fired after a drill-through step is committed.
type DrillThroughEvent struct {
	Level int    `json:"level"`
	Query string `json:"query"`
}

func (DrillThroughEvent) Kind() EventKind { return EventDrillThrough }
func (DrillThroughEvent) event()          {}

// BackEvent is fired after the top level has been popped by the host.
type BackEvent struct {
	Level int `json:"level"`
}

func (BackEvent) Kind() EventKind { return EventBack }
func (BackEvent) event()          {}

// StepKind is the kind of navigation step that fetched data.
type StepKind string

const (
	StepRefresh      StepKind = "refresh"
	StepDrillDown    StepKind = "drill_down"
	StepDrillThrough StepKind = "drill_through"
)

// StepEvent describes a fetch-bearing navigation step.
type StepEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Step      StepKind      `json:"step"`
	Level     int           `json:"level"`
	Epoch     uint64        `json:"epoch"`
	Query     string        `json:"query"`
	Outcome   Outcome       `json:"outcome"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnFetch    func(context.Context, *StepEvent)
	OnCommit   func(context.Context, *StepEvent)
	OnRollback func(context.Context, *StepEvent)
}
