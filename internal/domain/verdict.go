package domain

// Verdict classifies a document identifier relative to the current principal.
// It is recomputed on every document load and never persisted.
type Verdict int

const (
	// VerdictNotFound means neither collection contains the id. The engine
	// deliberately does not distinguish "exists but forbidden" from "does
	// not exist".
	VerdictNotFound Verdict = iota
	// VerdictOwned means the principal's private collection contains the id.
	VerdictOwned
	// VerdictPublicReadOnly means only the public collection contains the id.
	VerdictPublicReadOnly
)

// Mutable reports whether the verdict permits local edits and persistence.
func (v Verdict) Mutable() bool { return v == VerdictOwned }

func (v Verdict) String() string {
	switch v {
	case VerdictOwned:
		return "owned"
	case VerdictPublicReadOnly:
		return "public-readonly"
	default:
		return "not-found"
	}
}
