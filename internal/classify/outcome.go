package classify

// DefaultThreshold is the lowest similarity still considered Normal.
const DefaultThreshold = 80.0

// Outcome is the routing decision for one record.
type Outcome int

const (
	Undetermined Outcome = iota
	Normal
	Anomaly
)

func (o Outcome) String() string {
	switch o {
	case Normal:
		return "normal"
	case Anomaly:
		return "anomaly"
	default:
		return "undetermined"
	}
}

// Decide maps an optional score onto an Outcome: score >= threshold is Normal,
// below is Anomaly, and a missing score is Undetermined.
func Decide(score float64, ok bool, threshold float64) Outcome {
	if !ok {
		return Undetermined
	}
	if score >= threshold {
		return Normal
	}
	return Anomaly
}
