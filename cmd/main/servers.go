package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"mse-observer/src/catalog"
	pb "mse-observer/src/grpc_control"
	"mse-observer/src/interfaces"
	"mse-observer/src/models"
	"mse-observer/src/server"
	"mse-observer/src/utils"
)

// -----------------------------------------------------------------------------

// runServers starts the HTTP server, the gRPC health server and the smart
// refresher, and blocks until SIGINT or SIGTERM.
func runServers(app *application) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := app.Config.MConfig
	srv := server.NewFastAPIServer(cfg, app.Chain, app.Store, app.History, app.Calendar, catalog.Universe(), app.Logger.Named("server"))
	var exchanger interfaces.IDataExchanger = srv

	var grpcService *pb.ControlService
	if cfg.GrpcPort != 0 {
		grpcService = pb.NewControlService(cfg, app.Logger.Named("grpc"))
		app.Chain.OnTierStatus = grpcService.SetTierStatus
	}

	errs := make(chan error, 2)
	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := exchanger.Start(); err != nil {
			errs <- fmt.Errorf("http server: %w", err)
		}
	}()

	if grpcService != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := grpcService.Serve(); err != nil {
				errs <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	if cfg.Refresh.Enabled {
		refresher := utils.NewSmartRefresher(app.Calendar, cfg.Refresh, refreshJob(app, exchanger), app.Logger.Named("refresher"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			refresher.Run(ctx)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		app.Logger.Info("Shutting down...")
	case runErr = <-errs:
		app.Logger.Error("Server failed: %v", runErr)
		cancel()
	}

	if err := exchanger.Stop(); err != nil {
		app.Logger.Warning("HTTP shutdown: %v", err)
	}
	if grpcService != nil {
		grpcService.Stop()
	}
	wg.Wait()
	return runErr
}

// -----------------------------------------------------------------------------

// refreshJob runs the chain and pushes the result to websocket clients. It
// reports an error whenever the live tier did not answer so the refresher
// can back off.
func refreshJob(app *application, exchanger interfaces.IDataExchanger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		snap := app.Chain.Refresh(ctx)
		exchanger.Broadcast(snap)
		if snap.Tier != models.TierLive {
			return fmt.Errorf("live tier unavailable, served %s", snap.Tier)
		}
		return nil
	}
}
