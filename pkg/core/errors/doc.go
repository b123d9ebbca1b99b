// Package errors implements the structured error type used across the Kiin
// toolchain. Errors carry a classification code, a severity, the pipeline
// stage they surfaced in, and free-form details, while staying compatible
// with the standard library's errors.Is/errors.As/errors.Unwrap.
//
// Components return *Error values built with the fluent helpers:
//
//	err := errors.New("content pack not readable").
//		WithCode(errors.CodeConfig).
//		WithDetail("path", packPath)
//
//	wrapped := errors.Wrap(err, "generation aborted").
//		WithStage("planned")
//
// Callers classify with HasCode / GetCode rather than string matching:
//
//	if errors.HasCode(err, errors.CodeEncoding) { ... }
package errors
