package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/config"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/features"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/server"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		klog.ErrorS(err, "Failed to load configuration")
		os.Exit(1)
	}

	registry, err := features.LoadRegistry(cfg.Registry)
	if err != nil {
		klog.ErrorS(err, "Failed to load feature registry",
			"source", cfg.Registry.Source)
		os.Exit(1)
	}

	klog.InfoS("Feature registry loaded",
		"source", cfg.Registry.Source,
		"units", registry.Size())

	engine := canopyengine.New(cfg, registry)
	srv := server.New(engine, cfg.Server)

	// Serve until interrupted, then drain
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		klog.ErrorS(err, "Server failed")
		os.Exit(1)
	case sig := <-sigCh:
		klog.InfoS("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		klog.ErrorS(err, "Shutdown did not complete cleanly")
		os.Exit(1)
	}
}
