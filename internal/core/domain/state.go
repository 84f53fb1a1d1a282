package domain

// Consistency is the state of a single source.
type Consistency uint8

const (
	// Inconsistent means the source has no pinned revision.
	Inconsistent Consistency = iota
	// Resolved means the source is pinned but its content is not stored locally.
	Resolved
	// Cached means the pinned content is present in the local content store.
	Cached
	// Workspaced means a local workspace directory overrides the source.
	Workspaced
)

// String returns the display name of the state.
func (c Consistency) String() string {
	switch c {
	case Resolved:
		return "resolved"
	case Cached:
		return "cached"
	case Workspaced:
		return "workspaced"
	default:
		return "inconsistent"
	}
}

// ElementState is the scheduling state of one element during a run.
type ElementState uint8

const (
	// StateWaiting means some build dependency has not finished yet.
	StateWaiting ElementState = iota
	// StateReady means the element can be processed.
	StateReady
	// StateRunning means a job for the element is queued or executing.
	StateRunning
	// StateCachedHit means the artifact was served from a cache.
	StateCachedHit
	// StateBuilt means the element was built and committed in this run.
	StateBuilt
	// StateDone means a non-build pipeline finished for the element.
	StateDone
	// StateFailed means a job for the element failed.
	StateFailed
	// StateSkipped means the element was not processed because a dependency
	// failed or the run stopped early.
	StateSkipped
)

// String returns the display name of the state.
func (s ElementState) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateCachedHit:
		return "cached"
	case StateBuilt:
		return "built"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the state is final for the run.
func (s ElementState) IsTerminal() bool {
	switch s {
	case StateCachedHit, StateBuilt, StateDone, StateFailed, StateSkipped:
		return true
	default:
		return false
	}
}

// IsSuccess reports whether the state satisfies dependents.
func (s ElementState) IsSuccess() bool {
	switch s {
	case StateCachedHit, StateBuilt, StateDone:
		return true
	default:
		return false
	}
}

// CanTransition reports whether an element may move from s to next.
func (s ElementState) CanTransition(next ElementState) bool {
	switch s {
	case StateWaiting:
		return next == StateReady || next == StateSkipped
	case StateReady:
		return next == StateRunning || next == StateSkipped
	case StateRunning:
		return next == StateCachedHit || next == StateBuilt || next == StateDone ||
			next == StateFailed || next == StateSkipped
	default:
		return false
	}
}

// JobKind identifies the work a scheduler job performs.
type JobKind uint8

const (
	// JobTrack resolves source tracking patterns to revisions.
	JobTrack JobKind = iota
	// JobFetch stores pinned source content locally.
	JobFetch
	// JobPull downloads an artifact from the remote cache.
	JobPull
	// JobBuild runs the element in the sandbox and commits the artifact.
	JobBuild
	// JobPush uploads an artifact to the remote cache.
	JobPush
	// JobCheckout materializes an artifact or sources into a directory.
	JobCheckout
)

// String returns the display name of the job kind.
func (k JobKind) String() string {
	switch k {
	case JobTrack:
		return "track"
	case JobFetch:
		return "fetch"
	case JobPull:
		return "pull"
	case JobBuild:
		return "build"
	case JobPush:
		return "push"
	case JobCheckout:
		return "checkout"
	default:
		return "unknown"
	}
}

// IsNetwork reports whether the job is limited by the network pool.
func (k JobKind) IsNetwork() bool {
	return k == JobTrack || k == JobFetch || k == JobPull || k == JobPush
}
