package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/flowcortex/agentcore/agentconfig"
	"github.com/flowcortex/agentcore/agenterrors"
	"github.com/flowcortex/agentcore/agentlog"
	"github.com/flowcortex/agentcore/eventbus"
	"github.com/flowcortex/agentcore/plan"
	"github.com/flowcortex/agentcore/planner"
	"github.com/flowcortex/agentcore/timeline"
	"github.com/flowcortex/agentcore/tracer"
)

// Scheduler drives one or more plan executions concurrently. The zero
// value is not usable; build one with New.
type Scheduler struct {
	cfg      agentconfig.SchedulerConfig
	bus      *eventbus.Bus
	trace    *tracer.Tracer
	tl       *timeline.Manager
	plnr     *planner.Planner
	runner   plan.ToolRunner
	log      agentlog.Logger
	limiter  *rate.Limiter

	mu         sync.Mutex
	executions map[string]*Handle
}

// Config configures a new Scheduler.
type Config struct {
	Scheduler  agentconfig.SchedulerConfig
	Bus        *eventbus.Bus
	Tracer     *tracer.Tracer
	Timeline   *timeline.Manager
	Planner    *planner.Planner
	ToolRunner plan.ToolRunner
	Log        agentlog.Logger
}

// New builds a Scheduler. A rate.Limiter is constructed once, up front,
// only when enabled.
func New(cfg Config) *Scheduler {
	if cfg.Log == nil {
		cfg.Log = agentlog.NoopLogger{}
	}
	s := &Scheduler{
		cfg:        cfg.Scheduler,
		bus:        cfg.Bus,
		trace:      cfg.Tracer,
		tl:         cfg.Timeline,
		plnr:       cfg.Planner,
		runner:     cfg.ToolRunner,
		log:        cfg.Log,
		executions: make(map[string]*Handle),
	}
	if cfg.Scheduler.RateLimit.Enabled && cfg.Scheduler.RateLimit.RequestsPerSecond > 0 {
		burst := cfg.Scheduler.RateLimit.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Scheduler.RateLimit.RequestsPerSecond), burst)
	}
	return s
}

// Handle is the caller-facing reference to one in-flight or completed
// execution. Step states are changed only by that execution's driver
// goroutine; exported methods read a mutex-guarded snapshot or set
// mutex-guarded control flags (paused, stopped) that the driver consults,
// per the "scheduler is single-owner of its ready queue" concurrency rule.
type Handle struct {
	sched *Scheduler
	exec  *plan.Execution
	p     *plan.Plan

	mu             sync.Mutex
	attempts       map[string]int
	fallbackUsed   map[string]bool
	toolOverride   map[string]string
	readyAt        map[string]time.Time
	runningCount   int
	paused         bool
	stopped        bool
	execFailed     bool
	dataPoints     int64
	stepDurations  map[string]time.Duration

	resultCh chan stepOutcome
	wakeCh   chan struct{}
	cancelFn context.CancelFunc
	doneCh   chan struct{}
}

// ExecutionID returns the handle's execution ID.
func (h *Handle) ExecutionID() string { return h.exec.ExecutionID }

// PlanID returns the plan ID the handle executes.
func (h *Handle) PlanID() string { return h.exec.PlanID }

// StartExecution begins driving p's step DAG and returns immediately with
// a Handle; execution proceeds on a background driver goroutine.
func (s *Scheduler) StartExecution(ctx context.Context, p *plan.Plan) (*Handle, error) {
	exec := plan.NewExecution(p)
	for _, step := range p.Steps {
		exec.States[step.ID] = plan.StepPending
	}
	exec.Status = plan.ExecutionRunning
	exec.StartTime = time.Now()

	runCtx, cancel := context.WithCancel(ctx)

	h := &Handle{
		sched:         s,
		exec:          exec,
		p:             p,
		attempts:      make(map[string]int),
		fallbackUsed:  make(map[string]bool),
		toolOverride:  make(map[string]string),
		readyAt:       make(map[string]time.Time),
		stepDurations: make(map[string]time.Duration),
		resultCh:      make(chan stepOutcome, len(p.Steps)+1),
		wakeCh:        make(chan struct{}, 1),
		cancelFn:      cancel,
		doneCh:        make(chan struct{}),
	}

	s.mu.Lock()
	s.executions[exec.ExecutionID] = h
	s.mu.Unlock()

	s.emit(runCtx, h, eventbus.Event{
		Type:        "plan.started",
		Source:      "scheduler",
		ExecutionID: exec.ExecutionID,
		Critical:    false,
		Data:        map[string]any{"planId": p.ID},
	}, "agent.started")

	go s.drive(runCtx, h)

	return h, nil
}

func (s *Scheduler) emit(ctx context.Context, h *Handle, e eventbus.Event, timelineEvent string) {
	e.CorrelationID = h.exec.CorrelationID
	if e.ExecutionID == "" {
		e.ExecutionID = h.exec.ExecutionID
	}
	if s.bus != nil {
		s.bus.Publish(ctx, e)
	}
	if s.tl != nil {
		evt := e.Type
		if timelineEvent != "" {
			evt = timelineEvent
		}
		if _, err := s.tl.Append(h.exec.ExecutionID, evt, h.exec.CorrelationID, e.Data); err != nil {
			s.log.Warn(ctx, "scheduler: timeline append failed", agentlog.F("error", err.Error()))
		}
	}
}

// drive is the single owner of h's ready queue. It never mutates step
// state from any other goroutine; step runners report outcomes back over
// resultCh exclusively.
func (s *Scheduler) drive(ctx context.Context, h *Handle) {
	defer close(h.doneCh)

	s.admit(ctx, h)
	if s.isTerminal(h) {
		s.finalize(ctx, h)
		return
	}

	for {
		select {
		case <-ctx.Done():
			s.finalizeCancelled(ctx, h)
			return
		case outcome := <-h.resultCh:
			s.handleOutcome(ctx, h, outcome)
			if s.isTerminal(h) {
				s.finalize(ctx, h)
				return
			}
			s.admit(ctx, h)
		case <-h.wakeCh:
			if s.isTerminal(h) {
				s.finalize(ctx, h)
				return
			}
			s.admit(ctx, h)
		}
	}
}

func (s *Scheduler) isTerminal(h *Handle) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, step := range h.p.Steps {
		switch h.exec.States[step.ID] {
		case plan.StepDone, plan.StepDoneFail, plan.StepSkipped, plan.StepCancelled:
			continue
		default:
			return false
		}
	}
	return true
}

// admit moves all currently ready steps into running, up to
// maxParallelSteps and the resource caps, tie-breaking critical-first,
// then smaller estimatedDuration, then insertion order.
func (s *Scheduler) admit(ctx context.Context, h *Handle) {
	h.mu.Lock()
	if h.paused || h.stopped {
		h.mu.Unlock()
		return
	}

	type candidate struct {
		idx  int
		step plan.PlanStep
	}
	now := time.Now()
	backoffPending := false
	var candidates []candidate
	for i, step := range h.p.Steps {
		if h.exec.States[step.ID] != plan.StepPending {
			continue
		}
		if at, ok := h.readyAt[step.ID]; ok && now.Before(at) {
			backoffPending = true
			continue
		}
		if !s.stepReady(h, step) {
			continue
		}
		candidates = append(candidates, candidate{idx: i, step: step})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if ca.step.Critical != cb.step.Critical {
			return ca.step.Critical
		}
		if ca.step.EstimatedDuration != cb.step.EstimatedDuration {
			return ca.step.EstimatedDuration < cb.step.EstimatedDuration
		}
		return ca.idx < cb.idx
	})

	maxParallel := s.cfg.MaxParallelSteps
	if maxParallel <= 0 {
		maxParallel = 1
	}

	usage := map[string]int{}
	if s.cfg.ResourceAware {
		for _, step := range h.p.Steps {
			if h.exec.States[step.ID] == plan.StepRunning {
				usage["memory"] += resourceWeight(step.ResourceRequirements.Memory)
				usage["cpu"] += resourceWeight(step.ResourceRequirements.CPU)
				usage["network"] += resourceWeight(step.ResourceRequirements.Network)
			}
		}
	}

	var toAdmit []plan.PlanStep
	for _, c := range candidates {
		if h.runningCount+len(toAdmit) >= maxParallel {
			break
		}
		if s.cfg.ResourceAware {
			mem := usage["memory"] + resourceWeight(c.step.ResourceRequirements.Memory)
			cpu := usage["cpu"] + resourceWeight(c.step.ResourceRequirements.CPU)
			net := usage["network"] + resourceWeight(c.step.ResourceRequirements.Network)
			if s.cfg.ResourceCaps.Memory > 0 && mem > s.cfg.ResourceCaps.Memory {
				continue
			}
			if s.cfg.ResourceCaps.CPU > 0 && cpu > s.cfg.ResourceCaps.CPU {
				continue
			}
			if s.cfg.ResourceCaps.Network > 0 && net > s.cfg.ResourceCaps.Network {
				continue
			}
			usage["memory"] = mem
			usage["cpu"] = cpu
			usage["network"] = net
		}
		toAdmit = append(toAdmit, c.step)
	}

	for _, step := range toAdmit {
		h.exec.States[step.ID] = plan.StepRunning
		h.runningCount++
		delete(h.readyAt, step.ID)
	}
	h.mu.Unlock()

	for _, step := range toAdmit {
		go s.runStep(ctx, h, step)
	}

	// Deadlock detection: nothing running, nothing admitted, but pending
	// steps remain whose dependencies will never resolve.
	h.mu.Lock()
	stillPending := false
	for _, step := range h.p.Steps {
		if h.exec.States[step.ID] == plan.StepPending {
			stillPending = true
			break
		}
	}
	deadlocked := stillPending && h.runningCount == 0 && len(toAdmit) == 0 && !backoffPending
	if deadlocked {
		h.execFailed = true
		for _, step := range h.p.Steps {
			if h.exec.States[step.ID] == plan.StepPending {
				h.exec.States[step.ID] = plan.StepCancelled
			}
		}
	}
	h.mu.Unlock()
}

func (s *Scheduler) stepReady(h *Handle, step plan.PlanStep) bool {
	for _, depID := range step.Dependencies {
		depStep := h.p.StepByID(depID)
		depCritical := depStep != nil && depStep.Critical
		if !dependencySatisfied(h.exec.States[depID], depCritical) {
			return false
		}
	}
	return true
}

func (s *Scheduler) runStep(ctx context.Context, h *Handle, step plan.PlanStep) {
	h.mu.Lock()
	h.attempts[step.ID]++
	attempt := h.attempts[step.ID]
	toolName := step.ToolID
	if override, ok := h.toolOverride[step.ID]; ok {
		toolName = override
	}
	h.mu.Unlock()

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = s.cfg.DefaultTimeout
	}
	stepCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	spanCtx, span := s.traceStart(stepCtx, h, step, toolName, timeout)
	defer span.End()

	s.emit(ctx, h, eventbus.Event{
		Type:        "step.started",
		Source:      "scheduler",
		ExecutionID: h.exec.ExecutionID,
		Data:        map[string]any{"stepId": step.ID, "attempt": attempt, "toolName": toolName},
	}, "tool.called")

	if s.limiter != nil {
		if err := s.limiter.Wait(spanCtx); err != nil {
			h.resultCh <- stepOutcome{stepID: step.ID, err: err, timedOut: isDeadlineErr(err), cancelled: !isDeadlineErr(err)}
			return
		}
	}

	start := time.Now()
	out, err := s.invoke(spanCtx, h, step, toolName)
	end := time.Now()

	if err != nil {
		span.RecordException(err)
		span.SetStatus(codesError(), err.Error())
		h.resultCh <- stepOutcome{
			stepID:    step.ID,
			err:       err,
			timedOut:  isDeadlineErr(spanCtx.Err()),
			cancelled: isCancelErr(spanCtx.Err()),
		}
		return
	}

	h.resultCh <- stepOutcome{
		stepID: step.ID,
		result: plan.StepResult{
			StepID:    step.ID,
			Output:    out,
			StartedAt: start,
			EndedAt:   end,
			Attempts:  attempt,
		},
	}
}

func (s *Scheduler) invoke(ctx context.Context, h *Handle, step plan.PlanStep, toolName string) (any, error) {
	if s.runner == nil {
		return nil, fmt.Errorf("scheduler: no tool runner configured for step %q", step.ID)
	}
	tc := plan.ToolCallContext{
		Context:       ctx,
		CorrelationID: h.exec.CorrelationID,
		ExecutionID:   h.exec.ExecutionID,
	}
	if deadline, ok := ctx.Deadline(); ok {
		tc.Deadline = deadline
	}
	return s.runner.Invoke(tc, toolName, step.Params)
}

func (s *Scheduler) handleOutcome(ctx context.Context, h *Handle, outcome stepOutcome) {
	h.mu.Lock()
	h.runningCount--
	step := h.p.StepByID(outcome.stepID)
	if step == nil {
		h.mu.Unlock()
		return
	}

	if outcome.err == nil {
		h.exec.States[outcome.stepID] = plan.StepDone
		h.exec.Results[outcome.stepID] = outcome.result
		h.stepDurations[outcome.stepID] = outcome.result.Duration()
		h.mu.Unlock()

		s.emit(ctx, h, eventbus.Event{
			Type:        "step.completed",
			Source:      "scheduler",
			ExecutionID: h.exec.ExecutionID,
			Data:        map[string]any{"stepId": outcome.stepID},
		}, "tool.result")
		return
	}

	attempt := h.attempts[outcome.stepID]
	action := decideFailureAction(*step, attempt, h.fallbackUsed[outcome.stepID])

	switch action {
	case actionRetry:
		h.exec.States[outcome.stepID] = plan.StepPending
		delay := backoffDelay(s.cfg.RetryDelay, attempt)
		h.readyAt[outcome.stepID] = time.Now().Add(delay)
		h.mu.Unlock()

		s.emit(ctx, h, eventbus.Event{
			Type:        "step.retrying",
			Source:      "scheduler",
			ExecutionID: h.exec.ExecutionID,
			Data:        map[string]any{"stepId": outcome.stepID, "attempt": attempt, "delayMs": delay.Milliseconds()},
		}, "")

		time.AfterFunc(delay, func() { s.wake(h) })
		return

	case actionFallback:
		h.toolOverride[outcome.stepID] = fallbackToolName(step.ToolID)
		h.fallbackUsed[outcome.stepID] = true
		h.exec.States[outcome.stepID] = plan.StepPending
		h.mu.Unlock()

		s.emit(ctx, h, eventbus.Event{
			Type:        "step.retrying",
			Source:      "scheduler",
			ExecutionID: h.exec.ExecutionID,
			Data:        map[string]any{"stepId": outcome.stepID, "fallbackTool": fallbackToolName(step.ToolID)},
		}, "")
		return

	case actionContinue:
		h.exec.States[outcome.stepID] = plan.StepDoneFail
		h.exec.Errors[outcome.stepID] = plan.StepError{StepID: outcome.stepID, Err: outcome.err, Attempts: attempt}
		h.mu.Unlock()

		s.emit(ctx, h, eventbus.Event{
			Type:        "step.failed",
			Source:      "scheduler",
			ExecutionID: h.exec.ExecutionID,
			Data:        map[string]any{"stepId": outcome.stepID, "error": outcome.err.Error(), "fatal": false},
		}, "tool.error")
		return

	default: // actionStop
		h.exec.States[outcome.stepID] = plan.StepDoneFail
		h.exec.Errors[outcome.stepID] = plan.StepError{StepID: outcome.stepID, Err: outcome.err, Attempts: attempt}
		h.execFailed = true
		s.cascadeCancel(h, outcome.stepID)
		h.mu.Unlock()

		s.emit(ctx, h, eventbus.Event{
			Type:        "step.failed",
			Source:      "scheduler",
			ExecutionID: h.exec.ExecutionID,
			Critical:    true,
			Data:        map[string]any{"stepId": outcome.stepID, "error": outcome.err.Error(), "fatal": true},
		}, "tool.error")
		return
	}
}

// cascadeCancel marks every pending/ready descendant of a stopped step as
// cancelled. Must be called with h.mu held.
func (s *Scheduler) cascadeCancel(h *Handle, failedStepID string) {
	dependents := func(id string) []string {
		var out []string
		for _, step := range h.p.Steps {
			for _, dep := range step.Dependencies {
				if dep == id {
					out = append(out, step.ID)
					break
				}
			}
		}
		return out
	}

	queue := dependents(failedStepID)
	seen := map[string]bool{}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		switch h.exec.States[id] {
		case plan.StepPending, plan.StepReady:
			h.exec.States[id] = plan.StepCancelled
		}
		queue = append(queue, dependents(id)...)
	}
}

func (s *Scheduler) wake(h *Handle) {
	select {
	case h.wakeCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) finalize(ctx context.Context, h *Handle) {
	h.mu.Lock()
	h.exec.EndTime = time.Now()
	failed := h.execFailed
	if failed {
		h.exec.Status = plan.ExecutionFailed
		h.exec.LastError = &plan.LastError{
			Kind:          string(agenterrors.KindExecution),
			Message:       "one or more critical steps failed",
			CorrelationID: h.exec.CorrelationID,
		}
	} else {
		h.exec.Status = plan.ExecutionCompleted
	}
	h.mu.Unlock()

	eventType := "plan.completed"
	timelineEvent := "agent.completed"
	critical := false
	if failed {
		eventType = "plan.failed"
		timelineEvent = "agent.failed"
		critical = true
	}
	s.emit(ctx, h, eventbus.Event{
		Type:        eventType,
		Source:      "scheduler",
		ExecutionID: h.exec.ExecutionID,
		Critical:    critical,
		Data:        map[string]any{"planId": h.p.ID},
	}, timelineEvent)
}

func (s *Scheduler) finalizeCancelled(ctx context.Context, h *Handle) {
	h.mu.Lock()
	for _, step := range h.p.Steps {
		switch h.exec.States[step.ID] {
		case plan.StepPending, plan.StepReady, plan.StepRunning:
			h.exec.States[step.ID] = plan.StepCancelled
		}
	}
	h.exec.Status = plan.ExecutionCancelled
	h.exec.EndTime = time.Now()
	h.mu.Unlock()

	s.emit(ctx, h, eventbus.Event{
		Type:        "plan.failed",
		Source:      "scheduler",
		ExecutionID: h.exec.ExecutionID,
		Data:        map[string]any{"planId": h.p.ID, "reason": "cancelled"},
	}, "agent.failed")
}

// Pause stops new step admissions without disturbing in-flight steps.
func (h *Handle) Pause() {
	h.mu.Lock()
	h.paused = true
	h.mu.Unlock()
}

// Resume clears Pause and re-triggers admission.
func (h *Handle) Resume() {
	h.mu.Lock()
	h.paused = false
	h.mu.Unlock()
	h.sched.wake(h)
}

// Cancel hierarchically cancels the execution: all running steps'
// contexts are cancelled and every non-terminal step is marked cancelled.
func (h *Handle) Cancel() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	h.cancelFn()
}

// Status returns the execution's current lifecycle status.
func (h *Handle) Status() plan.ExecutionStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exec.Status
}

// Progress summarizes the step-state distribution.
func (h *Handle) Progress() Progress {
	h.mu.Lock()
	defer h.mu.Unlock()

	p := Progress{Total: len(h.p.Steps)}
	for _, step := range h.p.Steps {
		switch h.exec.States[step.ID] {
		case plan.StepPending:
			p.Pending++
		case plan.StepReady:
			p.Ready++
		case plan.StepRunning:
			p.Running++
		case plan.StepDone:
			p.Done++
		case plan.StepDoneFail:
			p.Failed++
		case plan.StepSkipped:
			p.Skipped++
		case plan.StepCancelled:
			p.Cancelled++
		}
	}
	if p.Total > 0 {
		p.PercentComplete = float64(p.Done+p.Failed+p.Skipped+p.Cancelled) / float64(p.Total) * 100
	}
	return p
}

// Events returns the execution's timeline entries, if a timeline manager
// was configured.
func (h *Handle) Events() []timeline.Entry {
	if h.sched.tl == nil {
		return nil
	}
	return h.sched.tl.Entries(h.exec.ExecutionID)
}

// Analytics aggregates the execution's current metrics.
func (h *Handle) Analytics() Analytics {
	h.mu.Lock()
	defer h.mu.Unlock()

	a := Analytics{
		TotalSteps:          len(h.p.Steps),
		PerStepDuration:     make(map[string]time.Duration, len(h.stepDurations)),
		ResourceUtilization: map[string]float64{},
		DataPointsProcessed: h.dataPoints,
	}
	var total time.Duration
	for id, d := range h.stepDurations {
		a.PerStepDuration[id] = d
		total += d
	}
	for _, step := range h.p.Steps {
		switch h.exec.States[step.ID] {
		case plan.StepDone:
			a.CompletedSteps++
		case plan.StepDoneFail:
			a.FailedSteps++
		}
	}
	if a.CompletedSteps > 0 {
		a.AverageStepDuration = total / time.Duration(a.CompletedSteps)
	}
	executed := a.CompletedSteps + a.FailedSteps
	if executed > 0 {
		a.SuccessRate = float64(a.CompletedSteps) / float64(executed)
	}
	return a
}

// Execution exposes the underlying plan.Execution snapshot fields a
// caller may need (results, errors) beyond the summarized Progress and
// Analytics views.
func (h *Handle) Execution() plan.Execution {
	h.mu.Lock()
	defer h.mu.Unlock()
	return *h.exec
}

// GetExecution looks up a previously started execution by ID.
func (s *Scheduler) GetExecution(executionID string) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.executions[executionID]
	return h, ok
}

// InitiateReplan records a ReplanContext, asks the planner for a
// successor plan, and cancels the superseded execution's in-flight steps
// unless drain is requested, in which case already-running steps are
// left to finish while no new steps are admitted.
func (s *Scheduler) InitiateReplan(ctx context.Context, agentID, executionID, reason string, drain bool) (*plan.Plan, *ReplanContext, error) {
	h, ok := s.GetExecution(executionID)
	if !ok {
		return nil, nil, fmt.Errorf("scheduler: unknown execution %q", executionID)
	}

	rc := &ReplanContext{
		ReplanID:       plan.NewID("replan"),
		Timestamp:      time.Now(),
		Reason:         reason,
		TriggerPhase:   string(h.Status()),
		OriginalPlanID: h.PlanID(),
		Strategy:       h.p.Strategy,
	}

	s.emit(ctx, h, eventbus.Event{
		Type:        "replan.initiated",
		Source:      "scheduler",
		ExecutionID: executionID,
		Data:        map[string]any{"replanId": rc.ReplanID, "reason": reason},
	}, "")

	if s.plnr == nil {
		return nil, rc, fmt.Errorf("scheduler: no planner configured for replan")
	}

	successor, err := s.plnr.Replan(ctx, agentID, h.PlanID(), reason, nil, planner.PlanningContext{}, planner.Options{})
	if err != nil {
		return nil, rc, err
	}

	if drain {
		h.Pause()
	} else {
		h.Cancel()
	}

	return successor, rc, nil
}

func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= 30*time.Second {
			return 30 * time.Second
		}
	}
	if d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}

func isDeadlineErr(err error) bool {
	return err == context.DeadlineExceeded
}

func isCancelErr(err error) bool {
	return err == context.Canceled
}
