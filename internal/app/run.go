package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"invernadero-server/internal/config"
	"invernadero-server/internal/db"
	"invernadero-server/internal/httpapi"
	"invernadero-server/internal/migrate"
	"invernadero-server/internal/modules/telemetry"
	"invernadero-server/internal/modules/telemetry/repository"
	"invernadero-server/internal/mqtt"
)

const (
	shutdownTimeout    = 10 * time.Second
	mqttConnectTimeout = 5 * time.Second
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"storeDriver", cfg.StoreDriver,
		"storeTimeout", cfg.StoreTimeout,
		"mongoDatabase", cfg.MongoDatabase,
		"mongoCollection", cfg.MongoCollection,
		"sqlitePath", cfg.Path,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info("store connection successful", "driver", cfg.StoreDriver)

	mux := httpapi.NewMux(store)

	// The handler must be set before Connect: the broker may deliver queued
	// messages right after CONNACK.
	var subscriber *mqtt.Subscriber
	if cfg.MQTTEnabled() {
		subscriber, err = mqtt.NewSubscriber(cfg, logger)
		if err != nil {
			return err
		}
		telemetry.RegisterFeature(mux, store, cfg, logger, subscriber)

		connectCtx, connectCancel := context.WithTimeout(ctx, mqttConnectTimeout)
		err = subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	} else {
		telemetry.RegisterFeature(mux, store, cfg, logger, nil)
	}

	srv := httpapi.NewServer(cfg, mux)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		if subscriber != nil {
			logger.Info("mqtt disconnecting")
			subscriber.Disconnect()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("http shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// openStore connects the configured backend and prepares its schema. The
// returned func releases the connection.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.TelemetryRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		conn, err := db.OpenSQLite(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := migrate.Run(conn); err != nil {
			_ = db.Close(conn)
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(conn); err != nil {
				logger.Error("db close", "error", err)
			}
		}
		return repository.NewSQLiteRepository(conn), closeFn, nil

	case config.DriverMongo:
		client, err := db.OpenMongo(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		database := client.Database(cfg.MongoDatabase)

		idxCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		err = repository.EnsureMongoIndexes(idxCtx, database, cfg.MongoCollection)
		cancel()
		if err != nil {
			_ = db.CloseMongo(client)
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.CloseMongo(client); err != nil {
				logger.Error("mongo disconnect", "error", err)
			}
		}
		return repository.NewMongoRepository(database, cfg.MongoCollection), closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
