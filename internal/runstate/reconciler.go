package runstate

import (
	"sync"
	"time"

	"github.com/crosswatch/dashd/internal/cwsdk"
)

// Displayed percentage regime. The floor keeps a started run from ever
// showing 0%, the ceiling keeps an unfinished run from ever showing done,
// and the drift cap bounds purely-cosmetic advancement while the server is
// quiet.
const (
	percentFloor   = 12
	percentDrift   = 60
	percentCeiling = 95

	driftAfter = 700 * time.Millisecond
	driftStep  = 3
)

// stage weights for the canonical timeline
const (
	percentStart = 12
	percentPre   = 45
	percentPost  = 80
)

// Snapshot is the reconciler's current view for rendering.
type Snapshot struct {
	RunID         string                                  `json:"run_id,omitempty"`
	Running       bool                                    `json:"running"`
	Timeline      Timeline                                `json:"timeline"`
	Percent       int                                     `json:"percent"`
	Indeterminate bool                                    `json:"indeterminate"`
	Features      map[cwsdk.FeatureKey]cwsdk.FeatureStats `json:"features,omitempty"`
}

// FinishedRun describes a completed run, emitted exactly once per run.
type FinishedRun struct {
	RunID          string
	StartedTS      int64
	ExitCode       int
	Features       map[cwsdk.FeatureKey]cwsdk.FeatureStats
	NeedsHydration bool
}

// Reconciler folds optimistic local state and coarse server polls into one
// smooth, monotonically-advancing progress view.
type Reconciler struct {
	mu sync.Mutex

	now func() time.Time

	runID      string
	timeline   Timeline
	running    bool
	optimistic bool
	shown      int
	features   map[cwsdk.FeatureKey]cwsdk.FeatureStats
	startedTS  int64

	lastServerAt time.Time

	// identity of the run whose completion side-effects already fired
	finishedRunID string
	finishedOnce  bool
	// run the reconciler was tracking when the optimistic start began;
	// its late summaries are stale, not a fresh completion
	priorRunID string
}

// NewReconciler creates an idle reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{now: time.Now}
}

// StartOptimistic transitions to the optimistic-start regime immediately
// after the user triggers a run, before the server confirms anything.
func (r *Reconciler) StartOptimistic() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.priorRunID = r.runID
	r.resetRunLocked("")
	r.optimistic = true
	r.timeline.Start = true
	r.shown = percentFloor
	r.lastServerAt = r.now()
}

// Tick advances the cosmetic drift. While the run is optimistic and the
// server has not reported anything past start for driftAfter, the shown
// percentage creeps up in small steps, capped well below real progress.
func (r *Reconciler) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.optimistic || r.timeline.Pre || r.timeline.Post || r.timeline.Done {
		return
	}
	if r.now().Sub(r.lastServerAt) < driftAfter {
		return
	}
	if r.shown+driftStep <= percentDrift {
		r.shown += driftStep
	}
}

// Apply folds one polled summary in. The returned FinishedRun is non-nil
// exactly once per completed run; polling the same finished run again
// returns nil.
func (r *Reconciler) Apply(s *cwsdk.RunSummary) *FinishedRun {
	r.mu.Lock()
	defer r.mu.Unlock()

	tl := NormalizeTimeline(s)
	id := s.Identity()

	// Right after an optimistic start the backend commonly still reports
	// the previous run's final summary. Without fresh activity or a run id
	// we have not seen finish before, that summary is stale: merging it
	// would collapse the optimistic regime and re-fire completion.
	if r.optimistic && !s.Running && !tl.InProgress() {
		if id == "" || id == r.finishedRunID || id == r.priorRunID {
			return nil
		}
	}

	// a different run id while activity is reported means a new run began
	if id != "" && id != r.runID && (s.Running || tl.InProgress()) {
		r.resetRunLocked(id)
	}
	if r.runID == "" {
		r.runID = id
	}

	wasInProgress := r.running || (r.optimistic && !r.timeline.Done)

	r.timeline = r.timeline.Merge(tl)
	r.running = s.Running
	// keep the start stamp from whichever poll carried it; final
	// summaries sometimes omit it
	if s.StartedTS != 0 {
		r.startedTS = s.StartedTS
	}
	if len(s.Features) > 0 {
		r.features = s.Features
	}
	r.lastServerAt = r.now()
	if tl.Pre || tl.Post || tl.Done || s.Running {
		r.optimistic = false
	}

	r.shown = max(r.shown, r.stagePercentLocked())

	nowInProgress := s.Running && !r.timeline.Done
	if wasInProgress && !nowInProgress && r.timeline.Done {
		// fire keyed on run identity, not on per-run reset bookkeeping;
		// id-less backends fall back to the once flag
		if (id != "" && id != r.finishedRunID) || (id == "" && !r.finishedOnce) {
			r.finishedOnce = true
			r.finishedRunID = id
			exit := 0
			if s.ExitCode != nil {
				exit = *s.ExitCode
			}
			return &FinishedRun{
				RunID:          id,
				StartedTS:      r.startedTS,
				ExitCode:       exit,
				Features:       r.features,
				NeedsHydration: s.EmptyFeatures(),
			}
		}
	}
	return nil
}

// Snapshot returns the current view.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Snapshot{
		RunID:         r.runID,
		Running:       r.running || r.optimistic,
		Timeline:      r.timeline,
		Percent:       r.shown,
		Indeterminate: r.optimistic && !r.timeline.Pre && !r.timeline.Post && !r.timeline.Done,
		Features:      r.features,
	}
}

// SetFeatures replaces the per-feature stats, used after fallback hydration.
func (r *Reconciler) SetFeatures(features map[cwsdk.FeatureKey]cwsdk.FeatureStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.features = features
}

func (r *Reconciler) resetRunLocked(id string) {
	r.runID = id
	r.timeline = Timeline{}
	r.running = false
	r.optimistic = false
	r.shown = 0
	r.features = nil
	r.startedTS = 0
	r.finishedOnce = false
}

// stagePercentLocked maps the timeline onto the displayed percentage with
// the floor and ceiling clamps applied.
func (r *Reconciler) stagePercentLocked() int {
	tl := r.timeline
	switch {
	case tl.Done:
		return 100
	case tl.Post:
		return min(percentPost, percentCeiling)
	case tl.Pre:
		return min(percentPre, percentCeiling)
	case tl.Start:
		return percentFloor
	default:
		return 0
	}
}
