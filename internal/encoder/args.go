package encoder

// Args builds an ffmpeg argument list without string concatenation
// mishaps. Inputs and options are appended in call order; the output
// path always goes last.
type Args struct {
	vals   []string
	output string
}

// NewArgs starts an argument list with the shared global flags:
// overwrite existing outputs and keep the log quiet (stderr is still
// captured and surfaced on failure).
func NewArgs() *Args {
	return &Args{
		vals: []string{"-y", "-hide_banner", "-loglevel", "error"},
	}
}

// Flag appends a bare flag such as -an
func (a *Args) Flag(name string) *Args {
	a.vals = append(a.vals, name)
	return a
}

// Opt appends a flag with a value such as -preset fast
func (a *Args) Opt(name, value string) *Args {
	a.vals = append(a.vals, name, value)
	return a
}

// Input appends an input file
func (a *Args) Input(path string) *Args {
	a.vals = append(a.vals, "-i", path)
	return a
}

// Output sets the output path, always emitted last
func (a *Args) Output(path string) *Args {
	a.output = path
	return a
}

// Build returns the final argument slice
func (a *Args) Build() []string {
	out := make([]string, 0, len(a.vals)+1)
	out = append(out, a.vals...)
	if a.output != "" {
		out = append(out, a.output)
	}
	return out
}
