package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/acp/service/metrics"
	"gopkg.in/yaml.v3"
)

func TestResolveConfig(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "acp.yaml")
	require.NoError(t, os.WriteFile(location, []byte("processor:\n  workers: 3\nlogging:\n  level: warn\n"), 0o644))

	tests := []struct {
		name    string
		values  map[string]any
		env     map[string]string
		workers int
		level   string
		hasErr  bool
	}{
		{name: "defaults", workers: 4, level: "info"},
		{name: "config file", values: map[string]any{"config": location}, workers: 3, level: "warn"},
		{name: "override wins", values: map[string]any{"config": location, "processor.workers": 6}, workers: 6, level: "warn"},
		{name: "env override", env: map[string]string{"ACP_PROCESSOR_WORKERS": "9"}, workers: 9, level: "info"},
		{name: "invalid override", values: map[string]any{"processor.workers": -2}, hasErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, val := range tt.env {
				t.Setenv(k, val)
			}
			v := viper.New()
			v.SetEnvPrefix(envPrefix)
			v.SetEnvKeyReplacer(envKeyReplacer)
			v.AutomaticEnv()
			for k, val := range tt.values {
				v.Set(k, val)
			}
			cfg, err := resolveConfig(context.Background(), v)
			if tt.hasErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.workers, cfg.Processor.Workers)
			assert.Equal(t, tt.level, cfg.Logging.Level)
		})
	}
}

func TestRunCommand(t *testing.T) {
	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"run", "--tasks", "12", "--resources", "2", "--capacity", "1",
		"--max-duration", "2ms", "--fail-rate", "0", "--log-level", "error", "--workers", "3"})
	require.NoError(t, root.Execute())

	snapshot := metrics.Snapshot{}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &snapshot))
	assert.Equal(t, 12, snapshot.Completed)
	assert.Equal(t, 0, snapshot.Failed)
	assert.Len(t, snapshot.Utilization, 2)
}

func TestConfigCommand(t *testing.T) {
	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"config", "--workers", "7"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "workers: 7")
}
