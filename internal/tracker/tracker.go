package tracker

import (
	"sync"

	"github.com/raysh454/sitebots/internal/model"
)

// Sink receives a full copy of the six bot states after every mutation. It
// is never called concurrently by a single Tracker.
type Sink func(states []model.BotState)

type botInfo struct {
	name, description, icon string
}

var bots = [6]botInfo{
	{"Technical SEO Bot", "Analyzing technical SEO factors", "🔧"},
	{"Content Analysis Bot", "Evaluating content quality and optimization", "📝"},
	{"Performance Bot", "Measuring site speed and performance", "⚡"},
	{"Mobile SEO Bot", "Checking mobile optimization", "📱"},
	{"Security Scanner", "Scanning for security issues", "🔒"},
	{"Accessibility Bot", "Checking accessibility compliance", "♿"},
}

// Tracker holds one BotState per category, indexed like model.Categories.
// Each analyzer task writes only its own slot; the mutex guards the
// copy-then-publish step so a sink never sees a torn array.
type Tracker struct {
	mu     sync.Mutex
	states [6]model.BotState

	// publishMu keeps sink calls ordered and non-overlapping.
	publishMu sync.Mutex
	sink      Sink
}

// New creates six idle bots. A nil sink is allowed.
func New(sink Sink) *Tracker {
	t := &Tracker{sink: sink}
	for i, b := range bots {
		t.states[i] = model.BotState{
			Name:        b.name,
			Description: b.description,
			Icon:        b.icon,
			Status:      model.BotIdle,
		}
	}
	return t
}

// Update applies fn to slot i and publishes a snapshot. Updates to a bot in a
// terminal state, or to an out-of-range slot, are ignored and return false.
func (t *Tracker) Update(i int, fn func(*model.BotState)) bool {
	if i < 0 || i >= len(t.states) {
		return false
	}

	// publishMu is taken first so snapshots reach the sink in mutation order.
	t.publishMu.Lock()
	defer t.publishMu.Unlock()

	t.mu.Lock()
	if t.states[i].Status.Terminal() {
		t.mu.Unlock()
		return false
	}
	fn(&t.states[i])
	clampProgress(&t.states[i])
	snap := t.copyLocked()
	t.mu.Unlock()

	if t.sink != nil {
		t.sink(snap)
	}
	return true
}

// Snapshot returns a copy of all six states.
func (t *Tracker) Snapshot() []model.BotState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copyLocked()
}

// Start moves bot i to running.
func (t *Tracker) Start(i int) bool {
	return t.Update(i, func(s *model.BotState) { s.Status = model.BotRunning })
}

// SetProgress records synthetic progress for bot i.
func (t *Tracker) SetProgress(i, progress int) bool {
	return t.Update(i, func(s *model.BotState) { s.Progress = progress })
}

// Complete marks bot i completed with the given number of findings.
func (t *Tracker) Complete(i, findings int) bool {
	return t.Update(i, func(s *model.BotState) {
		s.Status = model.BotCompleted
		s.Findings = findings
	})
}

// Fail marks bot i as errored: progress 0, findings 1.
func (t *Tracker) Fail(i int) bool {
	return t.Update(i, func(s *model.BotState) {
		s.Status = model.BotError
		s.Progress = 0
		s.Findings = 1
	})
}

func (t *Tracker) copyLocked() []model.BotState {
	out := make([]model.BotState, len(t.states))
	copy(out, t.states[:])
	return out
}

func clampProgress(s *model.BotState) {
	if s.Progress < 0 {
		s.Progress = 0
	}
	if s.Progress > 100 {
		s.Progress = 100
	}
	if s.Findings < 0 {
		s.Findings = 0
	}
}
