package telemetry

import (
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RejectsIncompleteConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProfilerConfig
		want string
	}{
		{
			name: "missing server address",
			cfg:  ProfilerConfig{Enabled: true, ApplicationName: "schoolfee", Types: []string{"cpu"}},
			want: "server address",
		},
		{
			name: "missing application name",
			cfg:  ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040", Types: []string{"cpu"}},
			want: "application name",
		},
		{
			name: "unknown profile type",
			cfg: ProfilerConfig{
				Enabled:         true,
				ServerAddress:   "http://localhost:4040",
				ApplicationName: "schoolfee",
				Types:           []string{"cpu", "heap"},
			},
			want: `unknown profile type "heap"`,
		},
		{
			name: "no profile types",
			cfg:  ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040", ApplicationName: "schoolfee"},
			want: "at least one profile type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProfiler(tt.cfg, zap.NewNop())
			require.Error(t, err)
			assert.Nil(t, p)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseProfileTypes(t *testing.T) {
	types, err := parseProfileTypes([]string{" CPU ", "mutex", "cpu", "inuse_space"})
	require.NoError(t, err)
	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileMutexCount,
		pyroscope.ProfileMutexDuration,
		pyroscope.ProfileInuseSpace,
	}, types)
}

func TestProfileTags(t *testing.T) {
	t.Setenv("HOSTNAME", "fee-api-1")
	t.Setenv("POD_NAME", "")

	tags := profileTags(ProfilerConfig{Environment: "staging"})
	assert.Equal(t, map[string]string{"env": "staging", "hostname": "fee-api-1"}, tags)
}

func TestPyroscopeLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := newPyroscopeLogger(zap.New(core))

	l.Errorf("upload failed: %d", 503)
	l.Debugf("uploading %s", "cpu")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "upload failed: 503", entries[0].Message)
	assert.Equal(t, "pyroscope", entries[0].LoggerName)
}
