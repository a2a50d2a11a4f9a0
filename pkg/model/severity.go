package model

// SeverityLevel is the visual bucket a severity string falls into.
type SeverityLevel int

const (
	SeverityDefault SeverityLevel = iota
	SeverityHigh
	SeverityCritical
)

// String returns the bucket name.
func (l SeverityLevel) String() string {
	switch l {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	default:
		return "default"
	}
}

// ClassifySeverity maps a server severity onto a bucket. Only the exact
// strings "critical" and "high" are recognized; anything else, including
// the empty string, lands in SeverityDefault.
func ClassifySeverity(severity string) SeverityLevel {
	switch severity {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	default:
		return SeverityDefault
	}
}

// Level returns the insight's severity bucket.
func (i Insight) Level() SeverityLevel {
	return ClassifySeverity(i.Severity)
}
