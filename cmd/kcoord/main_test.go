package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coorderr "kcoord/pkg/error"
	"kcoord/pkg/logging"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	defer func() { _ = logging.Close() }()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "ERROR"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigDefaults(t *testing.T) {
	out, err := execute(t, "config", "--defaults")
	require.NoError(t, err)
	assert.Contains(t, out, "hash_bits: 10")
	assert.Contains(t, out, "default_policy: highest_priority")
}

func TestConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kcoord.yaml")
	require.NoError(t, os.WriteFile(path, []byte("futex:\n  hash_bits: 6\n"), 0o600))

	out, err := execute(t, "--config", path, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "hash_bits: 6")
}

func TestConfigRejectsBadLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "LOUD", "config")
	require.Error(t, err)
	assert.True(t, coorderr.HasCode(err, coorderr.CodeConfigInvalid))
}

func TestRunScenario(t *testing.T) {
	out, err := execute(t, "run", filepath.Join("..", "..", "pkg", "scenario", "testdata", "round_robin.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "round robin cycle")
	assert.Contains(t, out, "PASS")
}

func TestRunReportsFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: wrong winner
steps:
  - {op: arbiter.create, resource: 1}
  - {op: arbiter.add, resource: 1, requester: 4}
  - {op: arbiter.arbitrate, at: 1, resource: 1, expect: 5}
`), 0o600))

	out, err := execute(t, "run", path, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, coorderr.HasCode(err, coorderr.CodeScenarioExpectation))
	assert.Contains(t, err.Error(), "missing.yaml")
	assert.Contains(t, out, "FAIL")
}

func TestRunQuietHidesPassing(t *testing.T) {
	out, err := execute(t, "run", "-q", filepath.Join("..", "..", "pkg", "scenario", "testdata", "quorum.yaml"))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestStress(t *testing.T) {
	out, err := execute(t, "stress", "-w", "2", "-n", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "2 workers")
	assert.Contains(t, out, "arbitrations")
}

func TestRunRequiresArgs(t *testing.T) {
	_, err := execute(t, "run")
	require.Error(t, err)
}
