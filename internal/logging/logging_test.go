package logging

import (
	"bytes"
	"testing"

	"github.com/indigo-web/httpd/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	require.Equal(t, zerolog.Disabled, Level(config.Silent))
	require.Equal(t, zerolog.InfoLevel, Level(config.Normal))
	require.Equal(t, zerolog.DebugLevel, Level(config.Verbose))
	require.Equal(t, zerolog.TraceLevel, Level(config.Debug))
	require.Equal(t, zerolog.TraceLevel, Level(42))
}

func TestNew(t *testing.T) {
	t.Run("normal", func(t *testing.T) {
		out := new(bytes.Buffer)
		logger := New(out, config.Normal, false)
		logger.Debug().Msg("hidden")
		require.Zero(t, out.Len())

		logger.Info().Str("remote", "127.0.0.1").Msg("accepted")
		require.Contains(t, out.String(), `"remote":"127.0.0.1"`)
		require.Contains(t, out.String(), `"message":"accepted"`)
	})

	t.Run("silent", func(t *testing.T) {
		out := new(bytes.Buffer)
		logger := New(out, config.Silent, false)
		logger.Error().Msg("hidden")
		require.Zero(t, out.Len())
	})

	t.Run("pretty", func(t *testing.T) {
		out := new(bytes.Buffer)
		logger := New(out, config.Debug, true)
		logger.Trace().Msg("visible")
		require.Contains(t, out.String(), "visible")
		require.NotContains(t, out.String(), `"message"`)
	})
}
