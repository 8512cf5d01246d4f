package main

import (
	"context"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/staffing-api/internal/database"
	"github.com/staffing-api/internal/handler"
	"github.com/staffing-api/internal/scheduler"
	"github.com/staffing-api/internal/service"
)

func newServeCmd(envFile *string) *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the daily scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx, *envFile)
			if err != nil {
				return err
			}
			defer a.close()

			if !skipMigrations {
				sqlDB, err := a.db.DB()
				if err != nil {
					return err
				}
				if err := database.Migrate(ctx, sqlDB, a.log); err != nil {
					return err
				}
			}
			if err := a.withMessaging(ctx); err != nil {
				return err
			}
			return serve(ctx, a)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on start")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	deps := a.serviceDeps()
	runner := scheduler.NewRunner(a.passes(), a.locker(), a.clock, a.cfg.Scheduler, a.log.Named("scheduler"))

	h := handler.NewHandler(handler.Services{
		Assignments:  service.NewAssignmentService(deps),
		Reassignment: service.NewReassignmentService(deps),
		Backups:      service.NewBackupService(deps),
		History:      service.NewHistoryService(deps),
		Attendance:   service.NewAttendanceService(deps),
		Directory:    service.NewDirectoryService(deps),
		Passes:       runner,
	}, a.clock, a.log)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(a.cfg.Server.Port),
		Handler:      handler.NewRouter(h, a.cfg.Metrics, a.log),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("server is starting", zap.Int("port", a.cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})

	g.Go(func() error {
		err := runner.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("server is shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "could not gracefully shutdown the server")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.log.Info("server stopped")
	return nil
}
