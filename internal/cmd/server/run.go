package serverrun

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	cfgpkg "github.com/nkasozi/reconciler-backend/internal/config"
	"github.com/nkasozi/reconciler-backend/internal/runtime"
	grpcserver "github.com/nkasozi/reconciler-backend/internal/server/grpc"
	httpserver "github.com/nkasozi/reconciler-backend/internal/server/http"
	pebblestore "github.com/nkasozi/reconciler-backend/internal/storage/pebble"
	logpkg "github.com/nkasozi/reconciler-backend/pkg/log"
)

type Options struct {
	DataDir       string
	GRPCAddr      string
	HTTPAddr      string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	// Logger overrides the one built from Config.Log.
	Logger logpkg.Logger
	// Ready, when set, receives the bound addresses once both listeners are up.
	Ready func(grpcAddr, httpAddr net.Addr)
}

// Run starts gRPC and HTTP servers and blocks until ctx is cancelled or a
// server fails.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	procLogger := opts.Logger
	if procLogger == nil {
		l, err := logpkg.ApplyConfig(&opts.Config.Log)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		procLogger = l
		logpkg.RedirectStdLog(procLogger)
	}

	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	if opts.GRPCAddr == "" {
		opts.GRPCAddr = opts.Config.Server.GRPCAddr
	}
	if opts.HTTPAddr == "" {
		opts.HTTPAddr = opts.Config.Server.HTTPAddr
	}
	rt, err := runtime.Open(sctx, runtime.Options{
		DataDir:       filepath.Join(opts.DataDir, "store"),
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Config:        opts.Config,
		Logger:        procLogger,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	glis, err := net.Listen("tcp", opts.GRPCAddr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", opts.GRPCAddr, err)
	}
	hlis, err := net.Listen("tcp", opts.HTTPAddr)
	if err != nil {
		_ = glis.Close()
		return fmt.Errorf("http listen %s: %w", opts.HTTPAddr, err)
	}

	procLogger.Info("starting reconciler server",
		logpkg.Str("grpc", glis.Addr().String()),
		logpkg.Str("http", hlis.Addr().String()),
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Str("namespace", opts.Config.Namespace),
	)
	if opts.Ready != nil {
		opts.Ready(glis.Addr(), hlis.Addr())
	}

	gsrv := grpcserver.New(rt, procLogger)
	hsrv := httpserver.New(rt, procLogger)
	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error { return gsrv.Serve(gctx, glis) })
	g.Go(func() error { return hsrv.Serve(gctx, hlis) })
	err = g.Wait()
	procLogger.Info("reconciler server stopped")
	return err
}
