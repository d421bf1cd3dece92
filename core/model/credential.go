package model

// LifecycleStatus is the battery lifecycle claim extracted from a verified
// battery birth certificate. It is the only credential field the planner
// acts on.
type LifecycleStatus int

const (
	LifecycleUnknown LifecycleStatus = iota
	LifecycleInUse
	LifecycleSecondLife
	LifecycleEndOfLife
)

// ParseLifecycleStatus maps a credential claim string to a status. Anything
// unrecognised, including the empty string, degrades to LifecycleUnknown so a
// malformed or missing credential never fails a request.
func ParseLifecycleStatus(s string) LifecycleStatus {
	switch s {
	case "IN_USE":
		return LifecycleInUse
	case "SECOND_LIFE":
		return LifecycleSecondLife
	case "END_OF_LIFE":
		return LifecycleEndOfLife
	default:
		return LifecycleUnknown
	}
}

// String returns the credential claim representation of the status.
func (s LifecycleStatus) String() string {
	switch s {
	case LifecycleInUse:
		return "IN_USE"
	case LifecycleSecondLife:
		return "SECOND_LIFE"
	case LifecycleEndOfLife:
		return "END_OF_LIFE"
	default:
		return "UNKNOWN"
	}
}

// BatteryCredential carries the claims of a battery birth certificate. All
// fields except Lifecycle are opaque to the planner and only retained for
// audit purposes.
type BatteryCredential struct {
	BatteryID       string          `json:"battery_id"`
	Lifecycle       LifecycleStatus `json:"lifecycle"`
	CellType        string          `json:"cell_type,omitempty"`
	Manufacturer    string          `json:"manufacturer,omitempty"`
	ManufactureDate string          `json:"manufacture_date,omitempty"`
}
