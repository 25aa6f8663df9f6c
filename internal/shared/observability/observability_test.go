package observability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	ArtifactsTotal.WithLabelValues("header", "written").Inc()
	path := filepath.Join(t.TempDir(), "evmc.prom")

	require.NoError(t, WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `evmc_artifacts_total{kind="header",result="written"}`))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(DiagnosticsTotal.WithLabelValues("error"))
	DiagnosticsTotal.WithLabelValues("error").Add(2)
	assert.Equal(t, before+2, testutil.ToFloat64(DiagnosticsTotal.WithLabelValues("error")))
}

func TestSetupTracingWithoutEndpoint(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), TracingConfig{ServiceName: "evmc"})
	require.NoError(t, err)
	_, span := Tracer.Start(context.Background(), "phase")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, shutdown(context.Background()))
}
