package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
	"github.com/vladislavdragonenkov/shop/internal/storage/postgres"
	redisstore "github.com/vladislavdragonenkov/shop/internal/storage/redis"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Customers domain.CustomerDirectory
	Catalog   domain.InventoryCatalog
	Ledger    domain.OrderLedger
	Outbox    domain.OutboxRepository
	Logger    *log.Entry

	// Store не nil, если хранилища работают поверх PostgreSQL.
	Store *postgres.Store

	redisClient *goredis.Client
}

// NewDependencies собирает зависимости согласно конфигурации.
// Без PostgresDSN все хранилища работают in-memory; RedisAddr
// переключает каталог товаров на Redis независимо от остальных.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		Customers: memory.NewCustomerDirectory(),
		Catalog:   memory.NewInventoryCatalog(),
		Ledger:    memory.NewOrderLedger(),
		Outbox:    memory.NewOutboxRepository(),
		Logger:    logger,
	}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		deps.Store = store
		deps.Customers = postgres.NewCustomerRepository(store)
		deps.Catalog = postgres.NewProductRepository(store)
		deps.Ledger = postgres.NewOrderRepository(store)
		deps.Outbox = postgres.NewOutboxRepository(store)
		logger.Info("storage: postgres")
	} else {
		logger.Info("storage: in-memory")
	}

	if cfg.RedisAddr != "" {
		deps.redisClient = goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		deps.Catalog = redisstore.NewInventoryCatalog(deps.redisClient)
		logger.WithField("addr", cfg.RedisAddr).Info("inventory catalog: redis")
	}

	return deps, nil
}

// Workflow собирает workflow оформления заказов поверх текущих зависимостей.
func (d *Dependencies) Workflow() *order.Workflow {
	return order.NewWorkflowWithOutbox(
		d.Customers,
		d.Catalog,
		d.Ledger,
		d.Outbox,
		d.Logger.WithField("component", "order-workflow"),
	)
}

// Close освобождает внешние подключения.
func (d *Dependencies) Close() {
	if d.redisClient != nil {
		if err := d.redisClient.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close redis client")
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
