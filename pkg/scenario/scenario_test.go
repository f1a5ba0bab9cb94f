package scenario

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kcoord/pkg/coord"
	coorderr "kcoord/pkg/error"
	"kcoord/pkg/logging"
)

func newRunner() *Runner {
	return NewRunner(coord.New(nil, nil), logging.Discard())
}

func TestRunTestdata(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			s, err := LoadFile(file)
			require.NoError(t, err)

			report, err := newRunner().Run(context.Background(), s)
			require.NoError(t, err)
			assert.True(t, report.Passed())
			assert.Len(t, report.Steps, len(s.Steps))
		})
	}
}

func TestRunReportsFailedExpectation(t *testing.T) {
	s, err := Parse(strings.NewReader(`
name: wrong guess
steps:
  - {op: lock.create, lock: 1}
  - {op: lock.try_acquire, lock: 1, requester: 1, expect: false}
  - {op: lock.try_acquire, lock: 1, requester: 2, expect: false}
`))
	require.NoError(t, err)

	report, err := newRunner().Run(context.Background(), s)
	require.Error(t, err)
	assert.True(t, coorderr.HasCode(err, coorderr.CodeScenarioExpectation))

	require.Len(t, report.Steps, 3)
	assert.Equal(t, 1, report.Failures)
	assert.False(t, report.Steps[1].Passed)
	assert.Equal(t, "true", report.Steps[1].Result)
	assert.True(t, report.Steps[2].Passed)
	assert.False(t, report.Steps[0].Checked)
}

func TestRunBadArgument(t *testing.T) {
	s, err := Parse(strings.NewReader(`
steps:
  - {op: lock.create, lock: 1, strategy: ticket}
`))
	require.NoError(t, err)

	_, err = newRunner().Run(context.Background(), s)
	require.Error(t, err)
	assert.True(t, coorderr.HasCode(err, coorderr.CodeScenarioParse))
}

func TestRunCancelled(t *testing.T) {
	s, err := Parse(strings.NewReader("steps:\n  - {op: futex.tick}\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newRunner().Run(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportIDsAreUnique(t *testing.T) {
	s := &Scenario{Name: "empty"}
	a, err := newRunner().Run(context.Background(), s)
	require.NoError(t, err)
	b, err := newRunner().Run(context.Background(), s)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code string
	}{
		{"unknown op", "steps:\n  - {op: lock.steal}\n", coorderr.CodeScenarioUnknownOp},
		{"ticks go backwards", "steps:\n  - {op: futex.tick, at: 5}\n  - {op: futex.tick, at: 4}\n", coorderr.CodeScenarioParse},
		{"unknown field", "steps:\n  - {op: futex.tick, when: 5}\n", coorderr.CodeScenarioParse},
		{"not yaml", "steps: [", coorderr.CodeScenarioParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, coorderr.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestLoadFileNamesUnnamedScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unnamed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - {op: futex.tick}\n"), 0o600))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "unnamed.yaml", s.Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, coorderr.HasCode(err, coorderr.CodeScenarioParse))
}
