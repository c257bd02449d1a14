package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/leadflow-api/pkg/logger"
)

func TestNew_JSONConNivel(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "WARN", Service: "leadflow-api", Output: &buf})

	l.Info().Msg("no sale")
	c := l.Component("sweep")
	c.Warn().Str("lead_id", "l-1").Msg("sale")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "sweep", line["component"])
	assert.Equal(t, "l-1", line["lead_id"])
	assert.Equal(t, "leadflow-api", line["service"])
}

func TestNew_NivelInvalidoUsaInfo(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "ruido", Output: &buf})
	l.Debug().Msg("no")
	l.Info().Msg("sí")
	assert.Contains(t, buf.String(), `"message":"sí"`)
	assert.NotContains(t, buf.String(), `"message":"no"`)
}
