package checkout

// State is the progress of one checkout attempt. Only Committed and
// Aborted are visible to callers.
type State int

const (
	Started State = iota
	Validating
	Materializing
	Draining
	Committed
	Aborted
)

func (s State) String() string {
	switch s {
	case Started:
		return "started"
	case Validating:
		return "validating"
	case Materializing:
		return "materializing"
	case Draining:
		return "draining"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

func (s State) Terminal() bool {
	return s == Committed || s == Aborted
}
