package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newServeTestCommand returns a serve command with its flags bound to opts.
func newServeTestCommand(opts *serveOptions, args ...string) *cobra.Command {
	cmd := &cobra.Command{Use: "serve"}
	opts.addFlags(cmd)
	_ = cmd.Flags().Parse(args)
	return cmd
}

func TestResolveConfig_FlagsOverride(t *testing.T) {
	opts := &serveOptions{}
	cmd := newServeTestCommand(opts, "--port", "4000", "--host", "127.0.0.1", "--log-level", "debug")

	cfg, err := resolveConfig(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestResolveConfig_EnvKeptWithoutFlag(t *testing.T) {
	t.Setenv("PORT", "5050")
	opts := &serveOptions{}
	cmd := newServeTestCommand(opts)

	cfg, err := resolveConfig(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, 5050, cfg.Port)
}

func TestResolveConfig_Invalid(t *testing.T) {
	opts := &serveOptions{}
	cmd := newServeTestCommand(opts, "--port", "70000")

	_, err := resolveConfig(cmd, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRunServe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recordd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
host: 127.0.0.1
resources:
  - kind: note
    path: /todo
    seed:
      - content: first
`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var body string
	opts := &serveOptions{}
	cmd := newServeTestCommand(opts, "--config", path, "--port", "0")
	var logs bytes.Buffer
	cmd.SetErr(&logs)
	opts.ready = func(url string) {
		defer cancel()
		resp, err := http.Get(url + "/todo")
		if err != nil {
			return
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		body = string(data)
	}

	require.NoError(t, runServe(ctx, cmd, opts))

	var notes []map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "first", notes[0]["content"])
	assert.Contains(t, logs.String(), "server started")
	assert.Contains(t, logs.String(), "shutting down")
}

func TestRunServe_BadLogLevel(t *testing.T) {
	opts := &serveOptions{}
	cmd := newServeTestCommand(opts, "--port", "0", "--log-level", "loud")

	err := runServe(context.Background(), cmd, opts)
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "recordd "))

	cmd = NewRootCommand()
	out.Reset()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--json"})
	require.NoError(t, cmd.Execute())

	var v VersionOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	assert.NotEmpty(t, v.Go)
	assert.NotEmpty(t, v.Version)
}
