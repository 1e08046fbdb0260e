package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/waveplan/internal/config"
	"github.com/felixgeelhaar/waveplan/internal/domain"
	"github.com/felixgeelhaar/waveplan/internal/errors"
	"github.com/felixgeelhaar/waveplan/internal/exitcode"
	"github.com/felixgeelhaar/waveplan/internal/log"
	"github.com/felixgeelhaar/waveplan/internal/metrics"
	"github.com/felixgeelhaar/waveplan/internal/plan"
)

const unitsYAML = `units:
  - {id: A, complexity: 0.3, estimated_size: 10, priority: 3}
  - {id: B, complexity: 0.3, estimated_size: 10, priority: 5}
  - {id: C, complexity: 0.3, estimated_size: 10, priority: 3, depends_on: [A, B]}
  - {id: D, complexity: 0.3, estimated_size: 10, priority: 3, depends_on: [C]}
`

// workspace isolates a test from config files in the working directory and
// the user's home.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func decodePlan(t *testing.T, out string) *plan.ExecutionPlan {
	t.Helper()
	var p plan.ExecutionPlan
	require.NoError(t, json.Unmarshal([]byte(out), &p), out)
	return &p
}

func TestPlanCommand_Text(t *testing.T) {
	dir := workspace(t)
	in := writeFile(t, dir, "units.yaml", unitsYAML)

	out, err := run(t, "plan", "--in", in)
	require.NoError(t, err)
	assert.Contains(t, out, "Execution plan v1 (ready)")
	assert.Contains(t, out, "Wave 0")
	assert.Contains(t, out, "Wave 2")
	assert.NotContains(t, out, "Wave 3")
}

func TestPlanCommand_JSONAndOut(t *testing.T) {
	dir := workspace(t)
	in := writeFile(t, dir, "units.yaml", unitsYAML)
	outFile := filepath.Join(dir, "plan.json")

	out, err := run(t, "plan", "--in", in, "--format", "json", "--out", outFile)
	require.NoError(t, err)

	p := decodePlan(t, out)
	assert.Equal(t, []string{"B", "A"}, p.Waves[0].Units)
	assert.Equal(t, 3, p.Metrics.CriticalPathLength)

	saved, err := plan.LoadPlan(outFile)
	require.NoError(t, err)
	assert.Equal(t, p.Fingerprint, saved.Fingerprint)
}

func TestPlanCommand_MaxWidthFromConfig(t *testing.T) {
	dir := workspace(t)
	in := writeFile(t, dir, "units.yaml", unitsYAML)
	cfg := writeFile(t, dir, "custom.yaml", "scheduler:\n  max_wave_width: 1\n")

	out, err := run(t, "--config", cfg, "plan", "--in", in, "--format", "json")
	require.NoError(t, err)
	p := decodePlan(t, out)
	require.Len(t, p.Waves, 4)
	assert.Equal(t, 0, p.Waves[1].Layer)

	out, err = run(t, "--config", cfg, "plan", "--in", in, "--format", "json", "--max-width", "0")
	require.NoError(t, err)
	assert.Len(t, decodePlan(t, out).Waves, 3, "flag overrides config")
}

func TestPlanCommand_Errors(t *testing.T) {
	dir := workspace(t)
	cyclic := writeFile(t, dir, "cycle.json",
		`[{"id":"A","complexity":0.1,"estimated_size":1,"priority":1,"depends_on":["B"]},
		  {"id":"B","complexity":0.1,"estimated_size":1,"priority":1,"depends_on":["A"]}]`)

	_, err := run(t, "plan", "--in", cyclic)
	assert.Equal(t, errors.KindCycle, errors.KindOf(err))

	_, err = run(t, "plan", "--in", filepath.Join(dir, "missing.yaml"))
	pe, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeFileNotFound, pe.Code)

	_, err = run(t, "plan", "--in", cyclic, "--format", "xml")
	assert.ErrorContains(t, err, "invalid flag --format")

	_, err = run(t, "plan")
	assert.ErrorContains(t, err, "required flag")

	_, err = run(t, "--log-level", "loud", "plan", "--in", cyclic)
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	dir := workspace(t)
	in := writeFile(t, dir, "units.yaml", unitsYAML)

	out, err := run(t, "validate", "--in", in)
	require.NoError(t, err)
	assert.Contains(t, out, "4 units in 3 waves")

	planFile := filepath.Join(dir, "plan.json")
	_, err = run(t, "plan", "--in", in, "--out", planFile)
	require.NoError(t, err)
	out, err = run(t, "validate", "--plan", planFile)
	require.NoError(t, err)
	assert.Contains(t, out, "is consistent")

	_, err = run(t, "validate")
	assert.Error(t, err)
}

func TestReplanCommand(t *testing.T) {
	dir := workspace(t)
	in := writeFile(t, dir, "units.yaml", unitsYAML)

	// successes are applied in wave order regardless of flag order
	out, err := run(t, "replan", "--in", in, "--succeeded", "C,A,B", "--failed", "D", "--format", "json")
	require.NoError(t, err)
	p := decodePlan(t, out)
	assert.Equal(t, 5, p.Version)
	assert.Equal(t, domain.StatusFailed, p.Units["D"].Status)
	assert.Equal(t, plan.StatusExhausted, p.Status)

	out, err = run(t, "replan", "--in", in, "--failed", "A")
	require.NoError(t, err)
	assert.Contains(t, out, "blocked: C, D")

	_, err = run(t, "replan", "--in", in, "--succeeded", "D")
	assert.Equal(t, errors.KindInvalidTransition, errors.KindOf(err))

	_, err = run(t, "replan", "--in", in, "--failed", "nope")
	assert.Equal(t, errors.KindUnknownUnit, errors.KindOf(err))
}

func TestReplanCommand_ContinuesExportedPlan(t *testing.T) {
	dir := workspace(t)
	in := writeFile(t, dir, "units.yaml", unitsYAML)
	planFile := filepath.Join(dir, "plan.json")

	_, err := run(t, "plan", "--in", in, "--out", planFile)
	require.NoError(t, err)
	_, err = run(t, "replan", "--plan", planFile, "--succeeded", "A", "--out", planFile)
	require.NoError(t, err)
	out, err := run(t, "replan", "--plan", planFile, "--succeeded", "B", "--format", "json")
	require.NoError(t, err)

	p := decodePlan(t, out)
	assert.Equal(t, 3, p.Version)
	assert.Equal(t, domain.StatusCompleted, p.Units["A"].Status)
	assert.Equal(t, []string{"C"}, p.Ready())

	_, err = run(t, "replan", "--plan", planFile, "--in", in)
	assert.Error(t, err)
}

func TestDiffCommand(t *testing.T) {
	dir := workspace(t)
	in := writeFile(t, dir, "units.yaml", unitsYAML)
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	wide := writeFile(t, dir, "wide.yaml", "scheduler:\n  max_wave_width: 1\n")

	_, err := run(t, "plan", "--in", in, "--out", a)
	require.NoError(t, err)
	_, err = run(t, "replan", "--plan", a, "--succeeded", "A", "--out", b)
	require.NoError(t, err)

	out, err := run(t, "diff", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "plans are identical")

	_, err = run(t, "--config", wide, "plan", "--in", in, "--out", b)
	require.NoError(t, err)
	out, err = run(t, "diff", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "~ A  wave 0 -> 1")

	_, err = run(t, "diff", a)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	workspace(t)
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "waveplan "), out)

	out, err = run(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"go_version"`)
}

func TestServe(t *testing.T) {
	reg, m := metrics.NewRegistry()
	a := &app{cfg: config.Default(), logger: log.Discard(), registry: reg, metrics: m}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + l.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, l) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health/live")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Post(base+"/v1/sessions", "application/yaml", strings.NewReader(unitsYAML))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestBadInputFilesExitInvalidInput(t *testing.T) {
	dir := workspace(t)
	corrupt := writeFile(t, dir, "corrupt.json", "{not json")
	reordered := writeFile(t, dir, "reordered.json", `{
  "version": 1,
  "waves": [{"index": 0, "layer": 0, "units": ["B"]}, {"index": 1, "layer": 1, "units": ["A"]}],
  "units": {
    "A": {"id": "A", "complexity": 0.1, "estimated_size": 1, "priority": 3},
    "B": {"id": "B", "complexity": 0.1, "estimated_size": 1, "priority": 3, "depends_on": ["A"]}
  }
}`)
	text := writeFile(t, dir, "units.txt", "A")

	tests := []struct {
		name string
		args []string
	}{
		{"validate corrupt plan", []string{"validate", "--plan", corrupt}},
		{"replan corrupt plan", []string{"replan", "--plan", corrupt, "--succeeded", "A"}},
		{"validate reordered plan", []string{"validate", "--plan", reordered}},
		{"plan unsupported extension", []string{"plan", "--in", text}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, errors.KindIO, errors.KindOf(err))
			assert.Equal(t, exitcode.InvalidInput, exitcode.DetermineExitCode(err))
		})
	}
}
