package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OS2mo/os2mo-sub000/pkg/configuration"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), configuration.OpenTelemetryOptions{ServiceName: "test"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_Enabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), configuration.OpenTelemetryOptions{
		Enabled:     true,
		TempoURL:    "localhost:4318",
		ServiceName: "test",
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nothing was recorded, so shutdown has nothing to export.
	_ = shutdown(ctx)
}
