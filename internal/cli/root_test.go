package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTrace = `# ts client op src dst
0 c1 create /a/b/c null
1 c1 delete /a/b/c null
`

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRoot_TraceFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "trace.log")
	require.NoError(t, os.WriteFile(file, []byte(sampleTrace), 0o600))

	out, logs, err := execute(t, "", file, "--log-format=json")
	require.NoError(t, err)
	assert.Equal(t, "5 2 1\n", out)
	assert.Contains(t, logs, `"message":"simulation finished"`)
}

func TestRoot_StdinJSON(t *testing.T) {
	out, _, err := execute(t, sampleTrace, "-", "--output=json", "--capacity=8")
	require.NoError(t, err)
	assert.Contains(t, out, `"capacity": 8`)
	assert.Contains(t, out, `"writes": 1`)
}

func TestRoot_LenientSkipsBrokenLines(t *testing.T) {
	out, _, err := execute(t, "garbage\n"+sampleTrace, "-", "--lenient", "--output=yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped: 1\n")
	assert.Contains(t, out, "lookups: 5\n")
}

func TestRoot_StrictFailsOnBrokenLine(t *testing.T) {
	_, _, err := execute(t, "garbage\n", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestRoot_NoTrace(t *testing.T) {
	_, _, err := execute(t, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no trace given")
}

func TestRoot_RejectsBadCapacity(t *testing.T) {
	_, _, err := execute(t, sampleTrace, "-", "--capacity=0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capacity")
}

func TestRoot_InterruptedRunStillReports(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out, errOut bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetArgs([]string{"-", "--log-format=json"})
	cmd.SetIn(strings.NewReader(sampleTrace))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := cmd.ExecuteContext(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "0 0 0\n", out.String())
	assert.Contains(t, errOut.String(), `"message":"simulation interrupted"`)
}
