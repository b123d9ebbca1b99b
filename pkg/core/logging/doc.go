// Package logging provides structured logging for the kiin toolchain.
//
// Loggers are immutable: the WithX methods return a copy so a pipeline
// stage can carry its own context fields without affecting the parent.
// Entries flow through a Formatter (json, text, console or logfmt) to an
// io.Writer, and the Timer type measures stage durations.
//
// Typical usage:
//
//	log := logging.New().WithName("render").WithRun(runID)
//	log.Info("frame rendered", logging.Int("section", 2))
//
//	timer := log.StartTimer("encode clips")
//	defer timer.Stop()
package logging
