package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apiserver "github.com/careerlink/portal-engine/internal/api_server"
	"github.com/careerlink/portal-engine/internal/catalog"
	"github.com/careerlink/portal-engine/internal/config"
	"github.com/careerlink/portal-engine/internal/events"
	"github.com/careerlink/portal-engine/internal/service"
	"github.com/careerlink/portal-engine/internal/store"
	"github.com/careerlink/portal-engine/pkg/docstore"
	"github.com/careerlink/portal-engine/pkg/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the portal api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := setup()
		if err != nil {
			return err
		}
		defer done()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		if cfg.Database.Type != store.DialectPostgres {
			if err := s.InitialMigration(); err != nil {
				return errors.Wrap(err, "running initial migration")
			}
		}

		c, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		writer, err := events.NewWriter(ctx, cfg)
		if err != nil {
			return errors.Wrap(err, "creating events writer")
		}
		producer := events.NewEventProducer(writer,
			events.WithOutputTopic(cfg.Service.Kafka.Topic),
			events.WithBufferSize(cfg.Service.Events.BufferSize),
			events.WithFailureHook(func(kind string, err error) {
				metrics.IncreaseNotificationFailureMetric(kind)
				zap.S().Named("events").Warnw("failed to deliver event", "kind", kind, "error", err)
			}),
		)
		defer func() {
			if err := producer.Close(); err != nil {
				zap.S().Warnw("closing event producer", "error", err)
			}
		}()

		docs, err := newDocumentChecker(cfg)
		if err != nil {
			return err
		}

		services, err := apiserver.NewServices(cfg, s, c, service.NewEventNotifier(producer), docs)
		if err != nil {
			return errors.Wrap(err, "building services")
		}

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, services, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("Error running server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating metrics listener", "error", err)
			}

			metricsServer, err := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener, services.Statistics)
			if err != nil {
				zap.S().Fatalw("creating metrics server", "error", err)
			}
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("Error running metrics server", "error", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Service.CatalogFile == "" {
		return catalog.Default(), nil
	}
	c, err := catalog.Load(cfg.Service.CatalogFile)
	if err != nil {
		return nil, errors.Wrapf(err, "loading document catalog %s", cfg.Service.CatalogFile)
	}
	zap.S().Infow("loaded document catalog", "file", cfg.Service.CatalogFile)
	return c, nil
}

// newDocumentChecker returns nil when no document store is configured.
func newDocumentChecker(cfg *config.Config) (service.DocumentChecker, error) {
	ds := cfg.Service.DocStore
	if ds.Endpoint == "" {
		return nil, nil
	}
	checker, err := docstore.NewChecker(
		docstore.WithEndpoint(ds.Endpoint),
		docstore.WithBucket(ds.Bucket),
		docstore.WithAccessKey(ds.AccessKey),
		docstore.WithSecretKey(ds.SecretKey),
		docstore.WithSSL(ds.UseSSL),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating document store checker")
	}
	return checker, nil
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
