package bootstrap_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/leadflow-api/internal/bootstrap"
	"github.com/jhoicas/leadflow-api/pkg/config"
)

func TestOpenStorage_Memoria(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "memory"}}
	st, err := bootstrap.OpenStorage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer st.Close()

	require.NotNil(t, st.Repos.Leads)
	sweeper := bootstrap.NewSweeper(st, config.AutomationConfig{}, zerolog.Nop())
	res, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Zero(t, res.TasksCreated)
}
