// Command mockapi serves an in-memory job board with the same routes, envelopes
// and token lifecycle as the real backend, so the sync layer can be exercised
// without one.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"syscall"

	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/bassista/jobsync/internal/api/middleware"
	"github.com/bassista/jobsync/internal/api/route"
	"github.com/bassista/jobsync/internal/config"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/metrics"
	"github.com/enrichman/httpgrace"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithComponent("main").Fatalf("configuration error: %v", err)
	}

	// Set log level from configuration
	logLevel, err := logrus.ParseLevel(cfg.Misc.LogLevel)
	if err != nil {
		logger.WithComponent("main").Warnf("invalid log level '%s', using 'info': %v", cfg.Misc.LogLevel, err)
		logLevel = logrus.InfoLevel
	}
	logger.Logger.SetLevel(logLevel)
	logger.WithComponent("main").Debugf("log level set to: %s", logLevel.String())
	logger.WithComponent("main").Infof("Mock API will run on port: %d", cfg.Server.Port)

	data, err := loadDataset(cfg.Server)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init dataset: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gin.SetMode(cfg.Misc.GinMode)
	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := newRouter(cfg.Server, data, reg)
	srv := createGraceHttpServer(ctx, "mock-api", cfg.Server, r)

	if err := srv.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithComponent("main").Fatal(err)
	}
}

// loadDataset builds the dataset from the seed file, or the built-in seed when none is set,
// and arms any configured faults.
func loadDataset(cfg config.ServerConfig) (*dataset.Dataset, error) {
	seed := dataset.DefaultSeed()
	if cfg.SeedFile != "" {
		var err error
		if seed, err = dataset.LoadSeedFile(cfg.SeedFile); err != nil {
			return nil, err
		}
		logger.WithComponent("main").Infof("seed loaded from %s", cfg.SeedFile)
	}

	data, err := dataset.New(seed, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	if cfg.Faults != "" {
		if err := data.Faults().ParseFaults(cfg.Faults); err != nil {
			return nil, fmt.Errorf("parse faults: %w", err)
		}
		logger.WithComponent("main").Warnf("fault injection armed: %s", cfg.Faults)
	}
	return data, nil
}

func newRouter(cfg config.ServerConfig, data *dataset.Dataset, reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	route.SetupRoutes(r, route.Deps{
		Data:     data,
		Server:   cfg,
		Metrics:  metrics.NewClient(reg),
		Gatherer: reg,
	})
	return r
}

func createGraceHttpServer(ctx context.Context, name string, serverConfig config.ServerConfig, r *gin.Engine) *httpgrace.Server {
	slogLogger := slog.New(slog.NewTextHandler(logger.Logger.Writer(), nil))

	srv := httpgrace.NewServer(r,
		httpgrace.WithTimeout(serverConfig.ShutDownTimeout),
		httpgrace.WithSignals(syscall.SIGTERM, syscall.SIGINT),
		httpgrace.WithLogger(slogLogger),
		httpgrace.WithBeforeShutdown(func() {
			logger.WithComponent("http").Infof("Shutting down %s server....", name)
		}),
		httpgrace.WithServerOptions(
			httpgrace.WithReadTimeout(serverConfig.ReadTimeout),
			httpgrace.WithWriteTimeout(serverConfig.WriteTimeout),
			httpgrace.WithIdleTimeout(serverConfig.IdleTimeout),
			func(srv *http.Server) {
				srv.BaseContext = func(_ net.Listener) context.Context {
					return ctx
				}
			},
			func(srv *http.Server) {
				srv.ErrorLog = log.New(logger.Logger.Writer(), fmt.Sprintf("[%s] ", name), log.LstdFlags)
			},
		),
	)
	return srv
}
