package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/postgres"
	redisstore "github.com/vladislavdragonenkov/shop/internal/storage/redis"
)

// seed наполняет выбранный backend демонстрационными клиентами и товарами.
// Повторный запуск безопасен: уже существующие записи пропускаются.
func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	var (
		dsn       = flag.String("dsn", os.Getenv("SHOP_POSTGRES_DSN"), "PostgreSQL DSN")
		redisAddr = flag.String("redis", os.Getenv("SHOP_REDIS_ADDR"), "адрес Redis для каталога")
	)
	flag.Parse()

	customers := []domain.Customer{
		{ID: "C1", Name: "Alice Johnson", Email: "alice@example.com"},
		{ID: "C2", Name: "Bob Miller", Email: "bob@example.com"},
	}
	products := []domain.Product{
		{ID: "P1", Name: "Espresso beans 1kg", PriceMinor: 1000, Quantity: 5},
		{ID: "P2", Name: "Moka pot", PriceMinor: 2000, Quantity: 1},
		{ID: "P3", Name: "Hand grinder", PriceMinor: 3500, Quantity: 12},
	}

	if *dsn == "" && *redisAddr == "" {
		log.Fatal("не задан backend: используйте -dsn и/или -redis")
	}

	if *dsn != "" {
		seedPostgres(*dsn, customers, products)
	}
	if *redisAddr != "" {
		seedRedis(*redisAddr, products)
	}
}

func seedPostgres(dsn string, customers []domain.Customer, products []domain.Product) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		log.WithError(err).Fatal("не удалось подключиться к postgres")
	}
	defer func() {
		_ = store.Close()
	}()

	if err := store.EnsureSchema(ctx); err != nil {
		log.WithError(err).Fatal("ensure schema failed")
	}

	customerRepo := postgres.NewCustomerRepository(store)
	for _, customer := range customers {
		if err := customerRepo.Create(customer); err != nil {
			if errors.Is(err, domain.ErrCustomerExists) {
				continue
			}
			log.WithError(err).WithField("customer_id", customer.ID).Fatal("seed customer failed")
		}
	}

	productRepo := postgres.NewProductRepository(store)
	for _, product := range products {
		if err := productRepo.Create(product); err != nil {
			if errors.Is(err, domain.ErrProductExists) {
				continue
			}
			log.WithError(err).WithField("product_id", product.ID).Fatal("seed product failed")
		}
	}

	log.WithFields(log.Fields{
		"customers": len(customers),
		"products":  len(products),
	}).Info("postgres засеян")
}

func seedRedis(addr string, products []domain.Product) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	defer func() {
		_ = client.Close()
	}()

	catalog := redisstore.NewInventoryCatalog(client)
	for _, product := range products {
		if err := catalog.Seed(product); err != nil {
			log.WithError(err).WithField("product_id", product.ID).Fatal("seed product failed")
		}
	}

	log.WithField("products", len(products)).Info("redis каталог засеян")
}
