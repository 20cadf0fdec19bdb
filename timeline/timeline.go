// Package timeline implements the execution timeline state machine: an
// ordered, append-only log of {initialized, thinking, acting, observing,
// completed, failed, paused} states per execution, derived from the
// event types the scheduler and tracer publish. It generalizes flat
// pending/running/done/failed step bookkeeping into a full state machine
// with a transition table and a resilience policy: the timeline never
// throws on an unexpected transition, it logs and appends.
package timeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flowcortex/agentcore/agentlog"
)

// State is one node of the timeline state machine.
type State string

const (
	StateInitialized State = "initialized"
	StateThinking    State = "thinking"
	StateActing      State = "acting"
	StateObserving   State = "observing"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
	StatePaused      State = "paused"
)

// allowedTransitions encodes the state machine's transition table.
// completed and failed are terminal: absent as keys, they permit nothing.
var allowedTransitions = map[State][]State{
	StateInitialized: {StateThinking, StateFailed},
	StateThinking:    {StateActing, StateCompleted, StateFailed, StatePaused},
	StateActing:      {StateObserving, StateCompleted, StateFailed, StatePaused},
	StateObserving:   {StateThinking, StateCompleted, StateFailed, StatePaused},
	StatePaused:      {StateThinking, StateActing, StateObserving, StateFailed},
}

func isAllowed(from, to State) bool {
	if from == to {
		return true // self-loops are allowed by policy
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// eventStateMap maps an incoming event type to the state it drives the
// timeline into. Anything unrecognized maps to StateObserving.
var eventStateMap = map[string]State{
	"agent.started":      StateInitialized,
	"agent.thinking":     StateThinking,
	"tool.called":        StateActing,
	"tool.call":          StateActing,
	"tool.result":        StateObserving,
	"agent.thought":      StateObserving,
	"agent.completed":    StateCompleted,
	"workflow.completed": StateCompleted,
	"agent.failed":       StateFailed,
	"tool.error":         StateFailed,
}

// StateForEventType resolves the state an event type drives the timeline
// into, defaulting to StateObserving for anything unrecognized.
func StateForEventType(eventType string) State {
	if s, ok := eventStateMap[eventType]; ok {
		return s
	}
	return StateObserving
}

// Entry is one append-only timeline record.
type Entry struct {
	ID            string
	Timestamp     time.Time
	State         State
	EventType     string
	EventData     map[string]any
	CorrelationID string
	Duration      time.Duration
	Metadata      map[string]any
	Anomalous     bool // true when this entry followed a disallowed transition
}

// executionTimeline holds one execution's ordered entries.
type executionTimeline struct {
	entries []Entry
}

// Manager owns every execution's timeline, a retention sweep, and the
// strict/lenient invalid-transition policy.
type Manager struct {
	mu                sync.Mutex
	timelines         map[string]*executionTimeline
	maxAge            time.Duration
	strictTransitions bool
	log               agentlog.Logger
}

// Config configures a Manager.
type Config struct {
	MaxAge            time.Duration
	StrictTransitions bool
	Log               agentlog.Logger
}

// New builds an empty Manager.
func New(cfg Config) *Manager {
	if cfg.Log == nil {
		cfg.Log = agentlog.NoopLogger{}
	}
	return &Manager{
		timelines:         make(map[string]*executionTimeline),
		maxAge:            cfg.MaxAge,
		strictTransitions: cfg.StrictTransitions,
		log:               cfg.Log,
	}
}

// ErrInvalidTransition is returned by Append only when StrictTransitions
// is enabled; in the default lenient mode Append always succeeds and
// instead marks the entry Anomalous.
type ErrInvalidTransition struct {
	From, To State
}

func (e *ErrInvalidTransition) Error() string {
	return "timeline: invalid transition from " + string(e.From) + " to " + string(e.To)
}

// Append records a new entry for executionID, deriving its state from
// eventType. In lenient mode (the default) an invalid transition is
// logged and still appended with Anomalous=true. In strict mode it
// returns *ErrInvalidTransition and does not append.
func (m *Manager) Append(executionID, eventType, correlationID string, eventData map[string]any) (Entry, error) {
	state := StateForEventType(eventType)

	m.mu.Lock()
	defer m.mu.Unlock()

	tl, ok := m.timelines[executionID]
	if !ok {
		tl = &executionTimeline{}
		m.timelines[executionID] = tl
	}

	var from State
	if len(tl.entries) > 0 {
		from = tl.entries[len(tl.entries)-1].State
	} else {
		from = StateInitialized
	}

	entry := Entry{
		ID:            timelineEntryID(executionID, len(tl.entries)),
		Timestamp:     time.Now(),
		State:         state,
		EventType:     eventType,
		EventData:     eventData,
		CorrelationID: correlationID,
	}

	if len(tl.entries) > 0 && !isAllowed(from, state) {
		if m.strictTransitions {
			return Entry{}, &ErrInvalidTransition{From: from, To: state}
		}
		entry.Anomalous = true
		m.log.Warn(context.Background(), "timeline: invalid transition appended under lenient policy", agentlog.F("executionId", executionID), agentlog.F("from", from), agentlog.F("to", state))
	}

	if len(tl.entries) > 0 {
		entry.Duration = entry.Timestamp.Sub(tl.entries[len(tl.entries)-1].Timestamp)
	}

	tl.entries = append(tl.entries, entry)
	return entry, nil
}

func timelineEntryID(executionID string, index int) string {
	return executionID + "-" + itoa(index)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := make([]byte, 0, 6)
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// Entries returns a copy of executionID's timeline, oldest first.
func (m *Manager) Entries(executionID string) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	tl, ok := m.timelines[executionID]
	if !ok {
		return nil
	}
	out := make([]Entry, len(tl.entries))
	copy(out, tl.entries)
	return out
}

// Sweep removes timelines whose last entry is older than maxAge, and
// returns the number removed. A no-op when maxAge <= 0.
func (m *Manager) Sweep(now time.Time) int {
	if m.maxAge <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, tl := range m.timelines {
		if len(tl.entries) == 0 {
			continue
		}
		last := tl.entries[len(tl.entries)-1]
		if now.Sub(last.Timestamp) > m.maxAge {
			delete(m.timelines, id)
			removed++
		}
	}
	return removed
}

// ExecutionIDs returns every execution ID with a tracked timeline, sorted
// for deterministic iteration.
func (m *Manager) ExecutionIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.timelines))
	for id := range m.timelines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
