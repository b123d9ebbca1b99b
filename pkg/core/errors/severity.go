package errors

// Severity represents how badly an error impacts a generation run.
type Severity int

const (
	// SeverityLow indicates a recoverable problem such as invalid user
	// input or a missing optional field.
	SeverityLow Severity = iota

	// SeverityMedium indicates a problem that fails one item but leaves
	// the rest of a batch viable.
	SeverityMedium

	// SeverityHigh indicates a problem with the environment itself, such
	// as a missing encoder binary or an unreachable TTS backend.
	SeverityHigh
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Level returns the numeric level of the severity (0-2)
func (s Severity) Level() int {
	return int(s)
}

// SeverityFromCode returns the default severity for an error code.
// WithSeverity overrides it when a site knows better.
func SeverityFromCode(code Code) Severity {
	switch code {
	case CodeEncoding, CodeNarration, CodeOutputVerification, CodeInternal:
		return SeverityHigh
	case CodeConfig, CodeMissingConfig, CodeInvalidConfig, CodeRender, CodePublish, CodeTimeout:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
