// Command storefrontd runs the remote tier: schema migrations and the admin
// moderation gRPC API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/storefront/internal/config"
	"github.com/and161185/storefront/internal/identity"
	"github.com/and161185/storefront/internal/limiter"
	"github.com/and161185/storefront/internal/migrate"
	"github.com/and161185/storefront/internal/mode"
	"github.com/and161185/storefront/internal/moderation"
	"github.com/and161185/storefront/internal/repository/postgres"
	grpcserver "github.com/and161185/storefront/internal/server/grpc"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

type flags struct {
	config  string
	addr    string
	dsn     string
	jwtKey  string
	cert    string
	key     string
	dev     bool
	level   string
	migrate bool
}

func parseFlags(args []string) (flags, *flag.FlagSet, error) {
	var f flags
	fs := flag.NewFlagSet("storefrontd", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", os.Getenv("STOREFRONT_CONFIG"), "YAML config file")
	fs.StringVar(&f.addr, "addr", "", "listen address")
	fs.StringVar(&f.dsn, "dsn", "", "PostgreSQL DSN")
	fs.StringVar(&f.jwtKey, "jwt-key", "", "HS256 key for bearer tokens")
	fs.StringVar(&f.cert, "tls-cert", "", "TLS certificate (PEM)")
	fs.StringVar(&f.key, "tls-key", "", "TLS private key (PEM)")
	fs.BoolVar(&f.dev, "dev", false, "dev mode: reflection, plaintext allowed")
	fs.StringVar(&f.level, "log-level", "", "log level")
	fs.BoolVar(&f.migrate, "migrate-only", false, "apply migrations and exit")
	err := fs.Parse(args)
	return f, fs, err
}

// loadConfig layers flags that were set explicitly over file and environment.
func loadConfig(f flags, fs *flag.FlagSet) (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(f.config)
	if err != nil {
		return config.Config{}, err
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "addr":
			cfg.Server.Addr = f.addr
		case "dsn":
			cfg.Remote.URL = f.dsn
		case "jwt-key":
			cfg.Server.JWTKey = f.jwtKey
		case "tls-cert":
			cfg.Server.TLSCert = f.cert
		case "tls-key":
			cfg.Server.TLSKey = f.key
		case "dev":
			cfg.Server.Dev = f.dev
		case "log-level":
			cfg.Log.Level = f.level
		}
	})
	return cfg, nil
}

func serverOptions(cfg config.ServerConfig) ([]grpc.ServerOption, error) {
	switch {
	case cfg.TLSCert != "" && cfg.TLSKey != "":
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return nil, fmt.Errorf("load TLS cert/key: %w", err)
		}
		return []grpc.ServerOption{grpc.Creds(creds)}, nil
	case cfg.Dev:
		return nil, nil
	default:
		return nil, errors.New("tls cert and key are required outside dev mode")
	}
}

// main parses configuration, runs migrations, and serves the moderation API.
func main() {
	f, fs, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	cfg, err := loadConfig(f, fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := cfg.Log.Logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	migrate.UseLogger(logger)
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Server.Addr),
	)

	if m := mode.Detect(cfg.Remote); !m.RemoteAvailable() {
		logger.Fatal("remote tier not configured", zap.String("reason", m.Reason()))
	}
	if cfg.Server.JWTKey == "" && !f.migrate {
		logger.Fatal("missing jwt signing key (--jwt-key)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := cfg.Remote.DSN()
	if err := migrate.Up(ctx, dsn); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}
	if f.migrate {
		v, err := migrate.Version(ctx, dsn)
		if err != nil {
			logger.Fatal("schema version", zap.Error(err))
		}
		logger.Info("migrations applied", zap.Int64("version", v))
		return
	}

	db, err := postgres.New(ctx, dsn)
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(ctx); err != nil {
		logger.Fatal("postgres ping", zap.Error(err))
	}

	catalogRepo := postgres.NewCatalogRepo(db)
	vendorRepo := postgres.NewVendorRepo(db)
	machine := moderation.New(moderation.NewRemoteStore(catalogRepo), vendorRepo, logger)

	opts, err := serverOptions(cfg.Server)
	if err != nil {
		logger.Fatal("server credentials", zap.Error(err))
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(
		grpcserver.RecoverUnary(logger),
		grpcserver.LoggingUnary(logger),
		grpcserver.AuthUnary(identity.NewVerifier([]byte(cfg.Server.JWTKey)), grpcserver.MethodPrefix,
			limiter.NewPG(db.Pool, limiter.DefaultPolicy), logger),
	))
	s := grpc.NewServer(opts...)
	grpcserver.Register(s, grpcserver.New(machine))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	if cfg.Server.Dev {
		reflection.Register(s)
	}

	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.Bool("tls", cfg.Server.TLSCert != ""))
		errCh <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		hs.Shutdown()
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.Stop()
		}
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
