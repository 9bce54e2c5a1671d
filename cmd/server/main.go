package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/dasmlab/mtbridge/pkg/config"
	"github.com/dasmlab/mtbridge/pkg/server"
	"github.com/dasmlab/mtbridge/pkg/service"
	"github.com/dasmlab/mtbridge/pkg/translate"
	"github.com/sirupsen/logrus"
)

var (
	// Flags override the environment when set.
	port     = flag.Int("port", 0, "gRPC server port (overrides MT_GRPC_PORT)")
	httpPort = flag.Int("http-port", -1, "HTTP server port, 0 disables it (overrides MT_HTTP_PORT)")
	provider = flag.String("provider", "", "Translation provider: microsoft, microsoft-cognitive or microsoft-terminology (overrides MT_PROVIDER)")
	logLevel = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	envFile  = flag.String("env", ".env", "Path to the .env file ($MTBRIDGE_ENV_FILE takes precedence)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(config.Options{
		EnvFile:   *envFile,
		Overrides: []func(*config.Config){applyFlags},
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := cfg.NewLogger()
	logger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"env_file":    cfg.EnvFile,
		"grpc_port":   cfg.GRPCPort,
		"http_port":   cfg.HTTPPort,
		"provider":    cfg.Provider,
		"log_level":   logger.GetLevel().String(),
	}).Info("Starting mtbridge server")

	translateCfg, err := cfg.TranslateConfig(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build provider configuration")
	}
	translateCfg.Reporter = translate.NewLogReporter(logger)

	machine, err := translate.NewMachine(translateCfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create translation provider")
	}

	// Verify the provider is reachable
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("Checking translation provider health...")
	if err := machine.CheckHealth(ctx); err != nil {
		logger.WithError(err).Warn("Provider health check failed, but continuing anyway")
		logger.Warn("Server will start, but translation requests may fail until the provider is reachable")
	} else {
		logger.Info("Provider health check passed")
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"port": cfg.GRPCPort,
		}).Fatal("Failed to listen on port")
	}

	opts := []grpc.ServerOption{
		grpc.Creds(insecure.NewCredentials()),
		// Clients ping every 30s; anything faster than 15s is rejected.
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             15 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     5 * time.Minute,
			MaxConnectionAge:      30 * time.Minute,
			MaxConnectionAgeGrace: 5 * time.Second,
			Time:                  30 * time.Second,
			Timeout:               10 * time.Second,
		}),
	}
	s := grpc.NewServer(opts...)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(service.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	service.RegisterMachineTranslationServer(s, service.NewTranslationService(machine, logger))

	// Enable reflection for grpcurl/debugging
	reflection.Register(s)

	errChan := make(chan error, 2)
	go func() {
		logger.WithFields(logrus.Fields{
			"port": cfg.GRPCPort,
		}).Info("gRPC server listening")
		if err := s.Serve(lis); err != nil {
			errChan <- fmt.Errorf("failed to serve: %w", err)
		}
	}()

	var httpServer *server.HTTPServer
	if cfg.HTTPPort > 0 {
		httpServer = server.NewHTTPServer(machine, logger, cfg.HTTPPort)
		go func() {
			if err := httpServer.Start(); err != nil {
				errChan <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.WithError(err).Fatal("Server error")
	case sig := <-sigChan:
		logger.WithFields(logrus.Fields{
			"signal": sig.String(),
		}).Info("Received signal, shutting down gracefully...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

		if httpServer != nil {
			if err := httpServer.Shutdown(ctx); err != nil {
				logger.WithError(err).Warn("HTTP server shutdown failed")
			}
		}

		stopped := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
			logger.Info("Server stopped gracefully")
		case <-ctx.Done():
			logger.Warn("Graceful shutdown timeout, forcing stop...")
			s.Stop()
		}
	}
}

// applyFlags copies explicitly set flags over the environment configuration.
func applyFlags(cfg *config.Config) {
	if *port > 0 {
		cfg.GRPCPort = *port
	}
	if *httpPort >= 0 {
		cfg.HTTPPort = *httpPort
	}
	if *provider != "" {
		cfg.Provider = *provider
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
}
