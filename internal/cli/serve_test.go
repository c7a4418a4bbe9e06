package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/calc/internal/store"
)

// serveFor runs the serve command until the context times out.
func serveFor(t *testing.T, d time.Duration, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	buf := &bytes.Buffer{}
	cmd := NewServeCommand(textOpts())
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return buf.String(), err
}

func TestServe_GracefulShutdown(t *testing.T) {
	out, err := serveFor(t, 200*time.Millisecond, taxPath, "--addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, out, "Serving income-tax")
	assert.Contains(t, out, "on 127.0.0.1:0")
}

func TestServe_SavesDictionary(t *testing.T) {
	db := filepath.Join(t.TempDir(), "calc.db")

	_, err := serveFor(t, 200*time.Millisecond, taxPath, "--addr", "127.0.0.1:0", "--db", db)
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	dicts, err := st.ListDictionaries(context.Background())
	require.NoError(t, err)
	require.Len(t, dicts, 1)
	assert.Equal(t, "income-tax", dicts[0].EngineID)
}

func TestServe_InvalidDictionary(t *testing.T) {
	_, err := serveFor(t, time.Second, filepath.Join("testdata", "cycle.yaml"), "--addr", "127.0.0.1:0")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = serveFor(t, time.Second, "missing.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestServe_BadAddress(t *testing.T) {
	_, err := serveFor(t, 5*time.Second, taxPath, "--addr", "not-an-address")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "server error")
}
