package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/logging"
)

// The integration suite drives the real pipeline against the real
// encoder binaries. Every test that encodes guards on the tools being
// installed, so the suite degrades to skips on machines without ffmpeg.

// configTemplate is rendered with the test's temp root. Small canvas,
// low fps and ultrafast preset keep the encodes in the sub-second
// range; the silent voice removes the TTS binary dependency.
const configTemplate = `
[general]
name = "kiin"
data_dir = "%[1]s/data"
output_dir = "%[1]s/output"
log_level = "error"

[brand]
width = 270
height = 480
fps = 10
margin = 24
title_size = 22.0
body_size = 16.0
line_spacing = 4

[voice]
name = "default"
engine = "silent"

[encoder]
preset = "ultrafast"
timeout = "180s"

[history]
enabled = true
path = "%[1]s/data/kiin.db"

[[types]]
name = "tips"
pack = "%[1]s/tips.json"
background = "gradient"
gradient_top = "#1E3A5F"
gradient_bottom = "#0A1828"
accent_color = "#4FC3F7"
timing = { hook = 1.0, body = 2.0, closing = 1.0 }

[[types]]
name = "myths"
pack = "%[1]s/myths.json"
background = "solid"
solid_color = "#101418"
accent_color = "#CE93D8"
transition_text = "The truth?"
crossfade = 0.4
timing = { hook = 1.5, transition = 1.0, body = 2.0, closing = 1.5 }
`

const tipsPack = `{
  "tips": [
    {"id": 1, "category": "focus", "hook": "Close the tabs", "body_text": "One thing at a time beats ten things at once", "closing_text": "Your brain will thank you"},
    {"id": 2, "category": "focus", "hook": "Write it down", "body_text": "An open loop in your head costs more than the task itself", "closing_text": "Paper is cheap"}
  ]
}`

const mythsPack = `{
  "myths": [
    {"id": 1, "category": "nature", "hook": "Lightning never strikes twice", "body_text": "Tall buildings take dozens of strikes every single year", "closing_text": "Same spot, every storm"},
    {"id": 2, "category": "nature", "hook": "Goldfish forget in three seconds", "body_text": "They learn feeding schedules and remember them for months on end", "closing_text": "They remember everything"}
  ]
}`

// requireTools skips the test when an external binary is missing
func requireTools(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("Skipping: %s not installed", name)
		}
	}
}

// testConfig writes a config file and the content packs into a temp
// root and loads the config through the regular loader.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := filepath.ToSlash(t.TempDir())

	writeFile(t, filepath.Join(root, "tips.json"), tipsPack)
	writeFile(t, filepath.Join(root, "myths.json"), mythsPack)

	path := filepath.Join(root, "kiin.toml")
	writeFile(t, path, fmt.Sprintf(configTemplate, root))

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("loading test config: %v", err)
	}
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func testLogger() *logging.Logger {
	return logging.New().WithLevel(logging.LevelError)
}

// requireNoError fails the test if err is not nil
func requireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// requireFile fails the test if path does not exist or is empty
func requireFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected output file %s: %v", path, err)
	}
	if info.Size() == 0 {
		t.Fatalf("output file %s is empty", path)
	}
}

// testDeadline bounds one encode-heavy test
const testDeadline = 120 * time.Second
