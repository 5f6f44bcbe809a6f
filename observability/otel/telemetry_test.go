package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"reservevault/config"
)

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders(" api-key = secret ,broken,=novalue, x=1=2")
	require.Equal(t, map[string]string{"api-key": "secret", "x": "1=2"}, headers)
	require.Empty(t, ParseHeaders(""))
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.TelemetryConfig{
		Enabled:     true,
		ServiceName: " vaultd ",
		Endpoint:    "collector:4318",
		Headers:     "a=b",
		Traces:      true,
	}, "staging")
	require.Equal(t, "vaultd", cfg.ServiceName)
	require.Equal(t, "staging", cfg.Environment)
	require.Equal(t, map[string]string{"a": "b"}, cfg.Headers)
	require.True(t, cfg.Traces)
	require.False(t, cfg.Metrics)
}

func TestInitWithoutSignalsIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, err = Init(context.Background(), Config{Traces: true})
	require.Error(t, err)
}
