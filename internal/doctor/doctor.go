// Package doctor runs environment checks against a loaded
// configuration: encoder binaries, voice engines, fonts, content packs,
// directories and the history ledger. Checks are independent and run
// concurrently; the report keeps registration order so output stays
// stable between runs.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/content"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/encoder"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/history"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/narrate"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/logging"
)

// Status classifies a check outcome
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Result is the outcome of one check
type Result struct {
	Name     string
	Status   Status
	Message  string
	Duration time.Duration
}

// Checker is one environment check
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

type namedCheck struct {
	name string
	fn   func(ctx context.Context) Result
}

// NewCheck wraps a check function with a name
func NewCheck(name string, fn func(ctx context.Context) Result) Checker {
	return &namedCheck{name: name, fn: fn}
}

func (c *namedCheck) Name() string { return c.name }

func (c *namedCheck) Check(ctx context.Context) Result { return c.fn(ctx) }

// Registry holds the checks for one doctor run
type Registry struct {
	mu     sync.Mutex
	tool   string
	checks []Checker
}

// NewRegistry creates an empty check registry
func NewRegistry(tool string) *Registry {
	return &Registry{tool: tool}
}

// Register appends a checker
func (r *Registry) Register(c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks = append(r.checks, c)
}

// RegisterFunc appends a check function
func (r *Registry) RegisterFunc(name string, fn func(ctx context.Context) Result) {
	r.Register(NewCheck(name, fn))
}

// Len returns the number of registered checks
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.checks)
}

// Report is the outcome of a full doctor run
type Report struct {
	Tool      string
	Status    Status
	Timestamp time.Time
	Results   []Result
}

// Counts tallies the results by status
func (r *Report) Counts() (ok, warn, fail int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusFail:
			fail++
		case StatusWarn:
			warn++
		default:
			ok++
		}
	}
	return ok, warn, fail
}

// Run executes all checks concurrently and aggregates the report.
// Results keep registration order regardless of completion order.
func (r *Registry) Run(ctx context.Context) *Report {
	r.mu.Lock()
	checks := make([]Checker, len(r.checks))
	copy(checks, r.checks)
	r.mu.Unlock()

	report := &Report{
		Tool:      r.tool,
		Timestamp: time.Now(),
		Results:   make([]Result, len(checks)),
	}

	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			start := time.Now()
			result := c.Check(ctx)
			result.Duration = time.Since(start)
			if result.Name == "" {
				result.Name = c.Name()
			}
			report.Results[i] = result
		}(i, c)
	}
	wg.Wait()

	report.Status = StatusOK
	for _, res := range report.Results {
		switch res.Status {
		case StatusFail:
			report.Status = StatusFail
		case StatusWarn:
			if report.Status != StatusFail {
				report.Status = StatusWarn
			}
		}
	}
	return report
}

// RegisterConfigChecks registers the standard checks derived from the
// configuration: one per external dependency the pipeline touches.
func RegisterConfigChecks(r *Registry, cfg *config.Config, log *logging.Logger) {
	r.Register(encoderCheck(cfg.Encoder, log))
	for _, v := range cfg.VoiceProfiles() {
		r.Register(VoiceCheck(v))
	}
	r.Register(fontCheck(cfg.Brand))
	for _, tc := range cfg.Types {
		r.Register(packCheck(tc))
	}
	r.Register(dirCheck("output-dir", cfg.General.OutputDir))
	r.Register(dirCheck("data-dir", cfg.General.DataDir))
	r.Register(historyCheck(cfg.History))
}

// encoderCheck verifies both encoder binaries start and respond
func encoderCheck(cfg config.EncoderConfig, log *logging.Logger) Checker {
	return NewCheck("encoder", func(ctx context.Context) Result {
		if err := encoder.New(cfg, log).Available(ctx); err != nil {
			return Result{Status: StatusFail, Message: err.Error()}
		}
		return Result{Status: StatusOK, Message: fmt.Sprintf("%s and %s respond", cfg.FFmpeg, cfg.FFprobe)}
	})
}

// VoiceCheck verifies one voice profile can synthesize: binary on PATH
// and model readable for process engines, URL and API key for http.
// The voices command reuses it for its availability column.
func VoiceCheck(v config.VoiceConfig) Checker {
	return NewCheck("voice:"+v.Name, func(ctx context.Context) Result {
		switch v.Engine {
		case "piper", "command":
			if _, err := exec.LookPath(v.Binary); err != nil {
				return Result{Status: StatusFail, Message: fmt.Sprintf("binary %q not found in PATH", v.Binary)}
			}
			if v.Engine == "piper" && v.Model != "" {
				if _, err := os.Stat(v.Model); err != nil {
					return Result{Status: StatusFail, Message: fmt.Sprintf("model %s not readable", v.Model)}
				}
			}
			return Result{Status: StatusOK, Message: fmt.Sprintf("%s engine ready (%s)", v.Engine, v.Binary)}
		case "http":
			if v.URL == "" {
				return Result{Status: StatusFail, Message: "http engine has no url"}
			}
			if os.Getenv(narrate.APIKeyEnv) == "" {
				return Result{Status: StatusWarn, Message: narrate.APIKeyEnv + " is not set"}
			}
			return Result{Status: StatusOK, Message: "http engine configured"}
		case "silent":
			return Result{Status: StatusOK, Message: "silent engine needs no external tools"}
		default:
			return Result{Status: StatusFail, Message: fmt.Sprintf("unknown engine %q", v.Engine)}
		}
	})
}

// fontCheck verifies the configured font files are readable. Missing
// configuration is a warning since the renderer falls back to the
// built-in face.
func fontCheck(brand config.BrandConfig) Checker {
	return NewCheck("fonts", func(ctx context.Context) Result {
		var missing []string
		for _, path := range []string{brand.TitleFont, brand.BodyFont} {
			if path == "" {
				continue
			}
			if _, err := os.Stat(path); err != nil {
				missing = append(missing, path)
			}
		}
		if len(missing) > 0 {
			return Result{Status: StatusFail, Message: "missing font files: " + strings.Join(missing, ", ")}
		}
		if brand.TitleFont == "" && brand.BodyFont == "" {
			return Result{Status: StatusWarn, Message: "no fonts configured, frames use the built-in face"}
		}
		return Result{Status: StatusOK, Message: "font files readable"}
	})
}

// packCheck loads one content pack end to end
func packCheck(tc config.TypeConfig) Checker {
	return NewCheck("pack:"+tc.Name, func(ctx context.Context) Result {
		pack, err := content.LoadPack(tc.Name, tc.Pack, content.Fields{
			Items:   tc.ItemsField,
			Hook:    tc.HookField,
			Body:    tc.BodyField,
			Closing: tc.ClosingField,
		})
		if err != nil {
			return Result{Status: StatusFail, Message: err.Error()}
		}
		return Result{Status: StatusOK, Message: fmt.Sprintf("%d items, %d categories", pack.Len(), len(pack.Categories()))}
	})
}

// dirCheck verifies a directory exists (creating it if needed) and is
// writable by dropping and removing a probe file.
func dirCheck(name, dir string) Checker {
	return NewCheck(name, func(ctx context.Context) Result {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{Status: StatusFail, Message: fmt.Sprintf("cannot create %s: %v", dir, err)}
		}
		probe := filepath.Join(dir, ".doctor-probe")
		if err := os.WriteFile(probe, nil, 0o644); err != nil {
			return Result{Status: StatusFail, Message: fmt.Sprintf("%s is not writable", dir)}
		}
		os.Remove(probe)
		return Result{Status: StatusOK, Message: dir + " is writable"}
	})
}

// historyCheck opens the ledger database once
func historyCheck(cfg config.HistoryConfig) Checker {
	return NewCheck("history", func(ctx context.Context) Result {
		if !cfg.Enabled {
			return Result{Status: StatusOK, Message: "ledger disabled"}
		}
		store, err := history.Open(cfg.Path)
		if err != nil {
			return Result{Status: StatusFail, Message: err.Error()}
		}
		store.Close()
		return Result{Status: StatusOK, Message: cfg.Path + " opens"}
	})
}
