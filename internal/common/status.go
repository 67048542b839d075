package common

type Status = int32

// Run states. A run moves forward through them in order; StatusFailed can be
// entered from any state after StatusPending.
const (
	StatusPending Status = iota
	StatusSizeDiscovery
	StatusPlanning
	StatusFetching
	StatusJoining
	StatusAssembling
	StatusCompleted
	StatusFailed
)

// StatusName returns a human readable label for s.
func StatusName(s Status) string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSizeDiscovery:
		return "size-discovery"
	case StatusPlanning:
		return "planning"
	case StatusFetching:
		return "fetching"
	case StatusJoining:
		return "joining"
	case StatusAssembling:
		return "assembling"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
