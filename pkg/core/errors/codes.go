package errors

// Code classifies an error for consistent handling at the CLI boundary and
// in the generation ledger.
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"

	// Configuration and content loading
	CodeConfig            Code = "CONFIG_ERROR"
	CodeMissingConfig     Code = "MISSING_CONFIG"
	CodeInvalidConfig     Code = "INVALID_CONFIG"
	CodeMissingField      Code = "MISSING_FIELD"
	CodeInsufficientItems Code = "INSUFFICIENT_ITEMS"

	// Generation pipeline
	CodeRender             Code = "RENDER_ERROR"
	CodeNarration          Code = "NARRATION_UNAVAILABLE"
	CodeEncoding           Code = "ENCODING_ERROR"
	CodeOutputVerification Code = "OUTPUT_VERIFICATION"

	// Distribution
	CodePublish Code = "PUBLISH_ERROR"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known valid code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput, CodeTimeout,
		CodeConfig, CodeMissingConfig, CodeInvalidConfig, CodeMissingField, CodeInsufficientItems,
		CodeRender, CodeNarration, CodeEncoding, CodeOutputVerification,
		CodePublish:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeConfig, CodeMissingConfig, CodeInvalidConfig, CodeMissingField, CodeInsufficientItems:
		return "configuration"
	case CodeRender, CodeNarration, CodeEncoding, CodeOutputVerification:
		return "pipeline"
	case CodePublish:
		return "distribution"
	default:
		return "generic"
	}
}
