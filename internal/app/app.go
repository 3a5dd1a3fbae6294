// Package app wires storage, broker and clients into the payment service.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/clients/payway"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/repository"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/service"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/broker"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/config"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/mongo"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/postgres"
)

type App struct {
	Service *service.Service
	PayWay  *payway.Client

	closers []func()
}

// New connects to the configured stores. Close must be called on success.
func New(ctx context.Context, cfg config.Config, l *slog.Logger) (*App, error) {
	a := &App{}

	repo, err := a.repository(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	producer, err := a.producer(cfg, l)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.PayWay = payway.NewClient(cfg.PayWay)
	a.Service = service.New(repo, producer, a.PayWay, cfg.Poller)

	return a, nil
}

func (a *App) repository(ctx context.Context, cfg config.Config) (service.Repository, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		err := postgres.UpMigrations(cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("up migrations: %w", err)
		}

		pool, err := postgres.ConnectToPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConn)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}

		a.closers = append(a.closers, pool.Close)

		return repository.New(pool), nil
	case config.StorageDriverMongo:
		client, db, err := mongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to mongo: %w", err)
		}

		a.closers = append(a.closers, func() {
			err := client.Disconnect(context.Background())
			if err != nil {
				slog.Error("disconnect from mongo", "error", err)
			}
		})

		return repository.NewMongo(db), nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func (a *App) producer(cfg config.Config, l *slog.Logger) (service.Producer, error) {
	switch cfg.Broker.Driver {
	case config.BrokerDriverKafka:
		p := broker.NewProducer(l, cfg.Kafka.Brokers, cfg.Kafka.OrderPaidTopic)
		a.closers = append(a.closers, p.Close)

		return p, nil
	case config.BrokerDriverRabbitMQ:
		p, err := broker.NewRabbitPublisher(l, cfg.RabbitMQ.URL, cfg.RabbitMQ.OrderPaidExchange)
		if err != nil {
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}

		a.closers = append(a.closers, p.Close)

		return p, nil
	}

	return nil, fmt.Errorf("unknown broker driver %q", cfg.Broker.Driver)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}

	a.closers = nil
}
