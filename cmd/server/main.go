package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/RickyOwings/rogue-stock/cmd/server/internal/console"
	"github.com/RickyOwings/rogue-stock/cmd/server/internal/static"
	"github.com/RickyOwings/rogue-stock/internal/engine"
	"github.com/RickyOwings/rogue-stock/pkg/config"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	// 2. Initialize Zap Logger with a toggleable level; the console "log"
	// command flips request logging on and off at runtime.
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = level
	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// 3. Start the engine: storage, registry, simulation loop.
	eng, err := engine.New(cfg.DB.Path(), logger, engine.Options{})
	if err != nil {
		logger.Fatal("Failed to open stock database", zap.Error(err))
	}
	defer eng.Close()

	// 4. Static file server for the browser UI
	mux := http.NewServeMux()
	mux.Handle("/", static.NewHandler(cfg.App.Dir, logger))
	srv := &http.Server{Addr: cfg.App.Addr(), Handler: mux}

	go func() {
		logger.Info("Server Started", zap.String("addr", cfg.App.Addr()))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	// 5. Console on stdin; quitting the console shuts the process down.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	con := console.New(eng, logger, os.Stdin, os.Stdout, console.Options{
		Prompt: cfg.Console.Prompt,
		Addr:   cfg.App.URL(),
		Level:  &level,
	})

	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		con.Run(ctx)
	}()

	// 6. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
	case <-consoleDone:
	}
	logger.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
