package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/ports"
)

// pendingStep is a step whose fetch is in flight.
type pendingStep struct {
	kind        domain.StepKind
	source      ports.DataSource
	level       int
	epoch       uint64
	query       string
	speculative bool
	started     time.Time
	ctx         context.Context
	cancel      context.CancelFunc
}

// beginLocked registers a new pending step on src and bumps the epoch of its level.
func (n *Navigator) beginLocked(ctx context.Context, kind domain.StepKind, src ports.DataSource, speculative bool) *pendingStep {
	level := len(n.stack) - 1
	stepCtx, cancel := context.WithCancel(ctx)
	step := &pendingStep{
		kind:        kind,
		source:      src,
		level:       level,
		epoch:       n.epochs[level].Inc(),
		query:       src.Query(),
		speculative: speculative,
		started:     time.Now(),
		ctx:         stepCtx,
		cancel:      cancel,
	}
	n.pending = step
	return step
}

// supersedeLocked abandons the pending step, if any.
// A speculative candidate still on top of the stack is rolled back.
func (n *Navigator) supersedeLocked() {
	p := n.pending
	if p == nil {
		return
	}
	n.pending = nil
	p.cancel()
	n.epochs[p.level].Inc()
	if p.speculative && len(n.stack)-1 == p.level && n.currentLocked() == p.source {
		n.popLevelLocked(true)
	}
	n.logger.Debug("step superseded", "step", p.kind, "level", p.level, "epoch", p.epoch)
}

// settleLocked reports whether step is still the one the navigator waits for
// and its source is still the top of the stack. A pending step is cleared either way.
func (n *Navigator) settleLocked(step *pendingStep) bool {
	step.cancel()
	if n.pending != step {
		return false
	}
	n.pending = nil
	return n.epochs[step.level].Load() == step.epoch && n.currentLocked() == step.source
}

func (n *Navigator) stepEvent(step *pendingStep, outcome domain.Outcome, err error) *domain.StepEvent {
	return &domain.StepEvent{
		Timestamp: time.Now(),
		Step:      step.kind,
		Level:     step.level,
		Epoch:     step.epoch,
		Query:     step.query,
		Outcome:   outcome,
		Duration:  time.Since(step.started),
		Err:       err,
	}
}

// fetch runs the step's fetch outside the lock.
func (n *Navigator) fetch(ctx context.Context, step *pendingStep) (*domain.Result, error) {
	result, err := step.source.Fetch(step.ctx)
	n.emit(ctx, n.hooks.OnFetch, n.stepEvent(step, domain.OutcomeCommitted, err))
	return result, err
}

// Refresh refetches the current level with the default filters reapplied.
// It is rejected when the root level has no base query.
func (n *Navigator) Refresh(ctx context.Context) domain.Outcome {
	n.mu.Lock()
	if n.stack[0].BaseQuery() == "" {
		n.mu.Unlock()
		n.logger.Warn("refresh skipped", "err", domain.ErrNoBaseQuery)
		return domain.OutcomeRejected
	}
	n.supersedeLocked()

	src := n.currentLocked()
	src.ClearFilters()
	for _, spec := range n.cfg.DefaultFilterSpecs {
		src.SetFilter(spec)
	}
	step := n.beginLocked(ctx, domain.StepRefresh, src, false)
	n.mu.Unlock()

	result, err := n.fetch(ctx, step)

	n.mu.Lock()
	if !n.settleLocked(step) {
		n.mu.Unlock()
		return n.superseded(ctx, step)
	}
	if err != nil {
		n.view.DisplayMessage(err.Error())
		n.mu.Unlock()
		n.logger.Warn("refresh failed", "level", step.level, "query", step.query, "err", err)
		n.emit(ctx, n.hooks.OnRollback, n.stepEvent(step, domain.OutcomeInvalid, err))
		return domain.OutcomeInvalid
	}
	if !n.store.IsValid(result) {
		n.view.DisplayMessage(n.invalidMessage(result))
		n.mu.Unlock()
		n.logger.Warn("refresh returned invalid data", "level", step.level, "query", step.query)
		n.emit(ctx, n.hooks.OnRollback, n.stepEvent(step, domain.OutcomeInvalid, domain.ErrInvalidData))
		return domain.OutcomeInvalid
	}
	n.store.SetData(result)
	n.view.DataChanged(result)
	n.mu.Unlock()

	n.emit(ctx, n.hooks.OnCommit, n.stepEvent(step, domain.OutcomeCommitted, nil))
	return domain.OutcomeCommitted
}

// ChangeBaseQuery collapses the stack to the root, installs query as the root's
// base query and refreshes.
func (n *Navigator) ChangeBaseQuery(ctx context.Context, query string) domain.Outcome {
	n.mu.Lock()
	n.supersedeLocked()
	for len(n.stack) > 1 {
		n.popLevelLocked(false)
		n.view.PopTable()
	}
	n.stack[0].SetBaseQuery(query)
	n.mu.Unlock()

	n.logger.Debug("base query changed", "query", query)
	return n.Refresh(ctx)
}

// TryDrillDown speculatively opens a child level narrowed to filter.
// The level is committed only if the fetched result is valid, has rows and its
// first row member carries leaf metadata; otherwise it is rolled back.
func (n *Navigator) TryDrillDown(ctx context.Context, filter string) domain.Outcome {
	n.mu.Lock()
	n.supersedeLocked()

	parent := n.currentLocked()
	base := parent.BaseQuery()
	expr, _ := n.cfg.DrillExpression(len(n.stack) - 1)
	query := n.builder.DrillDown(base, filter, expr)
	if query == "" {
		query = base
	}
	step := n.openCandidateLocked(ctx, domain.StepDrillDown, parent, query)
	n.mu.Unlock()

	n.logger.Debug("drill down", "filter", filter, "level", step.level, "query", query)
	result, err := n.fetch(ctx, step)

	return n.finishDrill(ctx, step, result, err, func(r *domain.Result) error {
		leaf, _ := r.LeafMember()
		if !leaf.HasLeafMetadata() {
			return fmt.Errorf("%w: first row member has no caption, dimension or path", domain.ErrInvalidData)
		}
		return nil
	}, domain.PanelOptions{}, func(r *domain.Result) domain.Event {
		leaf, _ := r.LeafMember()
		return domain.DrillDownEvent{Level: step.level, Query: query, Path: leaf.Path}
	})
}

// TryDrillThrough speculatively opens a listing of the records behind filters.
func (n *Navigator) TryDrillThrough(ctx context.Context, filters []string) domain.Outcome {
	n.mu.Lock()
	n.supersedeLocked()

	parent := n.currentLocked()
	base := parent.BaseQuery()
	target, _ := n.cfg.ListingTarget()
	query := n.builder.DrillThrough(base, filters, target)
	if query == "" {
		query = base
	}
	step := n.openCandidateLocked(ctx, domain.StepDrillThrough, parent, query)
	n.mu.Unlock()

	n.logger.Debug("drill through", "filters", filters, "level", step.level, "query", query)
	result, err := n.fetch(ctx, step)

	return n.finishDrill(ctx, step, result, err, nil,
		domain.PanelOptions{DisableConditionalFormatting: true},
		func(*domain.Result) domain.Event {
			return domain.DrillThroughEvent{Level: step.level, Query: query}
		})
}

// CustomDrillThrough is TryDrillThrough for loosely typed callers.
// filters must be a sequence of strings; anything else is logged and rejected.
func (n *Navigator) CustomDrillThrough(ctx context.Context, filters any) domain.Outcome {
	var specs []string
	switch v := filters.(type) {
	case []string:
		specs = v
	case []any:
		specs = make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				n.logger.Error("custom drill through rejected: filters must be strings", "filter", item)
				return domain.OutcomeRejected
			}
			specs = append(specs, s)
		}
	default:
		n.logger.Error("custom drill through rejected: filters must be a sequence", "filters", filters)
		return domain.OutcomeRejected
	}
	return n.TryDrillThrough(ctx, specs)
}

// Back closes the top level and shows the previous one.
func (n *Navigator) Back() domain.Outcome {
	n.mu.Lock()
	n.supersedeLocked()
	if len(n.stack) < 2 {
		n.mu.Unlock()
		return domain.OutcomeRejected
	}
	n.popLevelLocked(false)
	n.view.PopTable()
	n.view.DataChanged(n.store.Data())
	level := len(n.stack) - 1
	n.mu.Unlock()

	n.triggers.Fire(domain.BackEvent{Level: level})
	return domain.OutcomeCommitted
}

// openCandidateLocked pushes a speculative level with query as its base query
// and the parent's filters.
func (n *Navigator) openCandidateLocked(ctx context.Context, kind domain.StepKind, parent ports.DataSource, query string) *pendingStep {
	child := n.pushLevelLocked(n.cfg.DataSource)
	child.SetBaseQuery(query)
	child.SetFilters(parent.Filters())
	return n.beginLocked(ctx, kind, child, true)
}

// finishDrill commits or rolls back a speculative level once its fetch returned.
func (n *Navigator) finishDrill(
	ctx context.Context,
	step *pendingStep,
	result *domain.Result,
	err error,
	accept func(*domain.Result) error,
	panel domain.PanelOptions,
	event func(*domain.Result) domain.Event,
) domain.Outcome {
	n.mu.Lock()
	if !n.settleLocked(step) {
		n.mu.Unlock()
		return n.superseded(ctx, step)
	}

	if err == nil {
		err = n.validateLocked(result, accept)
	}
	if err != nil {
		n.popLevelLocked(true)
		n.mu.Unlock()
		n.logger.Debug("drill rolled back", "step", step.kind, "level", step.level, "query", step.query, "err", err)
		n.emit(ctx, n.hooks.OnRollback, n.stepEvent(step, domain.OutcomeRolledBack, err))
		return domain.OutcomeRolledBack
	}

	n.view.PushTable(panel)
	n.store.PushData()
	n.store.SetData(result)
	n.view.DataChanged(n.store.Data())
	ev := event(result)
	n.mu.Unlock()

	n.emit(ctx, n.hooks.OnCommit, n.stepEvent(step, domain.OutcomeCommitted, nil))
	n.triggers.Fire(ev)
	return domain.OutcomeCommitted
}

func (n *Navigator) validateLocked(result *domain.Result, accept func(*domain.Result) error) error {
	if !n.store.IsValid(result) {
		return domain.ErrInvalidData
	}
	if len(result.DataArray) == 0 {
		return fmt.Errorf("%w: empty result", domain.ErrInvalidData)
	}
	if accept != nil {
		return accept(result)
	}
	return nil
}

func (n *Navigator) superseded(ctx context.Context, step *pendingStep) domain.Outcome {
	n.emit(ctx, n.hooks.OnRollback, n.stepEvent(step, domain.OutcomeSuperseded, context.Canceled))
	return domain.OutcomeSuperseded
}
