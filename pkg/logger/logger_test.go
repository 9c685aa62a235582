package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	cfgpkg "github.com/esimtrip/cashier/pkg/config"
)

func TestNew(t *testing.T) {
	prod, err := New(&cfgpkg.Config{Env: cfgpkg.EnvProd})
	require.NoError(t, err)
	require.False(t, prod.Desugar().Core().Enabled(zapcore.DebugLevel))

	dev, err := New(&cfgpkg.Config{Env: cfgpkg.EnvDev})
	require.NoError(t, err)
	require.True(t, dev.Desugar().Core().Enabled(zapcore.DebugLevel))

	_, err = New(nil)
	require.NoError(t, err)
}
