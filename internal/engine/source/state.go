package source

import "go.trai.ch/keel/internal/core/domain"

// transition checks a source consistency change. Workspaced is reachable from
// every state and always returns to Resolved when the workspace closes.
func transition(from, to domain.Consistency) error {
	ok := false
	switch {
	case to == domain.Workspaced:
		ok = true
	case from == domain.Workspaced:
		ok = to == domain.Resolved || to == domain.Inconsistent
	case from == domain.Inconsistent:
		ok = to == domain.Resolved
	case from == domain.Resolved:
		ok = to == domain.Resolved || to == domain.Cached
	case from == domain.Cached:
		// Tracking may move a cached source to a new revision.
		ok = to == domain.Cached || to == domain.Resolved
	}
	if !ok {
		return domain.NewError(domain.ErrInvalidTransition, "from", from.String(), "to", to.String())
	}
	return nil
}
