// sweep ejecuta una corrida del barrido de automatización y termina.
// Pensado para cron cuando AUTOMATION_ENABLED=false en la API.
//
// Uso: go run ./cmd/sweep
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/leadflow-api/internal/bootstrap"
	"github.com/jhoicas/leadflow-api/pkg/config"
	"github.com/jhoicas/leadflow-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: cfg.App.Name}).Component("sweep")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := bootstrap.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir storage")
	}
	defer st.Close()

	res, err := bootstrap.NewSweeper(st, cfg.Automation, log).Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("barrido fallido")
		st.Close()
		os.Exit(1)
	}
	log.Info().
		Bool("skipped", res.Skipped).
		Int("tasks_created", res.TasksCreated).
		Int("notifications_created", res.NotificationsCreated).
		Int("leads_archived", res.LeadsArchived).
		Int("failures", res.Failures).
		Msg("barrido terminado")
}
