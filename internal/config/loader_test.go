package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/entryadmin/internal/config"
	"github.com/sufield/entryadmin/internal/core/errors"
)

func flagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("server-address", "127.0.0.1:8081", "")
	fs.String("agent-address", "unix:/tmp/agent.sock", "")
	fs.StringArray("server-id", nil, "")
	fs.Duration("timeout", 10*time.Second, "")
	fs.String("output", "text", "")
	fs.Bool("strict", false, "")
	fs.String("log-level", "info", "")
	fs.String("spiffe-id", "", "")
	fs.StringArray("selector", nil, "")
	fs.Int32("ttl", 0, "")
	fs.Bool("admin", false, "")
	fs.String("unrelated", "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func load(t *testing.T, path string, args ...string) (*config.Config, error) {
	t.Helper()
	loader := config.NewLoader()
	require.NoError(t, loader.BindFlags(flagSet(t, args...)))
	return loader.Load(path)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entryadmin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, "")
	require.NoError(t, err)

	want := config.Default()
	assert.Equal(t, want.ServerAddress, cfg.ServerAddress)
	assert.Equal(t, want.AgentAddress, cfg.AgentAddress)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, config.OutputText, cfg.Output)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "entryadmin", cfg.Metrics.Job)
	assert.Empty(t, cfg.Metrics.Pushgateway)
	assert.False(t, cfg.Strict)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, `
server_address: file.example:9000
agent_address: unix:/run/file/agent.sock
output: yaml
timeout: 3s
entry:
  spiffe_id: spiffe://example.org/from-file
  selectors: ["unix:uid:1"]
  ttl: 60
`)

	t.Run("file over default", func(t *testing.T) {
		cfg, err := load(t, path)
		require.NoError(t, err)
		assert.Equal(t, "file.example:9000", cfg.ServerAddress)
		assert.Equal(t, "unix:/run/file/agent.sock", cfg.AgentAddress)
		assert.Equal(t, config.OutputYAML, cfg.Output)
		assert.Equal(t, 3*time.Second, cfg.Timeout)
		assert.Equal(t, "spiffe://example.org/from-file", cfg.Entry.SPIFFEID)
		assert.Equal(t, []string{"unix:uid:1"}, cfg.Entry.Selectors)
		assert.Equal(t, int32(60), cfg.Entry.X509SVIDTTL)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("ENTRYADMIN_SERVER_ADDRESS", "env.example:9001")
		t.Setenv("ENTRYADMIN_ENTRY_SELECTORS", "unix:uid:2, unix:gid:3,")

		cfg, err := load(t, path)
		require.NoError(t, err)
		assert.Equal(t, "env.example:9001", cfg.ServerAddress)
		assert.Equal(t, []string{"unix:uid:2", "unix:gid:3"}, cfg.Entry.Selectors)
		assert.Equal(t, "unix:/run/file/agent.sock", cfg.AgentAddress)
	})

	t.Run("flag over env", func(t *testing.T) {
		t.Setenv("ENTRYADMIN_SERVER_ADDRESS", "env.example:9001")

		cfg, err := load(t, path,
			"--server-address", "flag.example:9002",
			"--selector", "k8s:ns:prod",
			"--selector", "k8s:sa:api",
			"--ttl", "3600",
		)
		require.NoError(t, err)
		assert.Equal(t, "flag.example:9002", cfg.ServerAddress)
		assert.Equal(t, []string{"k8s:ns:prod", "k8s:sa:api"}, cfg.Entry.Selectors)
		assert.Equal(t, int32(3600), cfg.Entry.X509SVIDTTL)
	})

	t.Run("flag values keep commas and quotes", func(t *testing.T) {
		cfg, err := load(t, "",
			"--selector", "docker:label:app:a,b",
			"--selector", `docker:env:FOO="x"`,
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"docker:label:app:a,b", `docker:env:FOO="x"`}, cfg.Entry.Selectors)
	})

	t.Run("unset flag does not mask env", func(t *testing.T) {
		t.Setenv("ENTRYADMIN_OUTPUT", "json")

		cfg, err := load(t, "", "--strict")
		require.NoError(t, err)
		assert.Equal(t, config.OutputJSON, cfg.Output)
		assert.True(t, cfg.Strict)
	})
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		env    map[string]string
		fields []string
	}{
		{
			name:   "server address without port",
			args:   []string{"--server-address", "spire-server"},
			fields: []string{"server_address"},
		},
		{
			name:   "agent address with unsupported scheme",
			args:   []string{"--agent-address", "http://agent:8080"},
			fields: []string{"agent_address"},
		},
		{
			name:   "unknown output",
			args:   []string{"--output", "xml"},
			fields: []string{"output"},
		},
		{
			name:   "server id that is not a SPIFFE ID",
			args:   []string{"--server-id", "spire-server"},
			fields: []string{"server_ids[0]"},
		},
		{
			name:   "zero timeout",
			args:   []string{"--timeout", "0s"},
			fields: []string{"timeout"},
		},
		{
			name:   "pushgateway must be a URL",
			env:    map[string]string{"ENTRYADMIN_METRICS_PUSHGATEWAY": "not a url"},
			fields: []string{"metrics.pushgateway"},
		},
		{
			name:   "every failure is reported",
			args:   []string{"--output", "xml", "--log-level", "loud"},
			fields: []string{"output", "log.level"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := load(t, "", tt.args...)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.Equal(t, errors.CategoryInput, errors.CategoryOf(err))

			for _, field := range tt.fields {
				assert.Contains(t, err.Error(), "'"+field+"'")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(t, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeFile(t, "server_address: [unterminated\n")
	_, err := load(t, path)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestEntryConfig_Input(t *testing.T) {
	entry := config.EntryConfig{
		SPIFFEID:    "spiffe://example.org/workload",
		Selectors:   []string{"unix:uid:1001"},
		X509SVIDTTL: 3600,
		Admin:       true,
	}
	in := entry.Input()

	assert.Equal(t, entry.SPIFFEID, in.SPIFFEID)
	assert.Equal(t, entry.Selectors, in.Selectors)
	assert.Equal(t, int32(3600), in.X509SVIDTTL)
	assert.True(t, in.Admin)

	in.Selectors[0] = "changed"
	assert.Equal(t, "unix:uid:1001", entry.Selectors[0], "Input must copy slices")
}
