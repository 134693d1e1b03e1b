package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const (
	productKeyPrefix = "product:"
	opTimeout        = 3 * time.Second

	fieldName       = "name"
	fieldPriceMinor = "price_minor"
	fieldQuantity   = "quantity"
)

// InventoryCatalog — реализация каталога поверх Redis-хэшей.
// Товар хранится в хэше product:<id> с полями name, price_minor, quantity.
// Подходит для инсталляций, где каталог обслуживается из кэша.
type InventoryCatalog struct {
	client *redis.Client
}

// NewInventoryCatalog создаёт Redis-реализацию InventoryCatalog.
func NewInventoryCatalog(client *redis.Client) *InventoryCatalog {
	return &InventoryCatalog{client: client}
}

// Seed записывает товар целиком (для инициализации и тестов).
func (c *InventoryCatalog) Seed(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return c.client.HSet(ctx, productKeyPrefix+product.ID,
		fieldName, product.Name,
		fieldPriceMinor, product.PriceMinor,
		fieldQuantity, int64(product.Quantity),
	).Err()
}

// FindAllByIDs читает товары одним pipeline; отсутствующие ключи пропускаются.
func (c *InventoryCatalog) FindAllByIDs(ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	seen := make(map[string]struct{}, len(ids))
	distinct := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	pipe := c.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(distinct))
	for i, id := range distinct {
		cmds[i] = pipe.HGetAll(ctx, productKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("read products from redis: %w", err)
	}

	result := make([]domain.Product, 0, len(distinct))
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil {
			return nil, fmt.Errorf("read product %s: %w", distinct[i], err)
		}
		if len(fields) == 0 {
			// HGETALL по несуществующему ключу возвращает пустой хэш.
			continue
		}

		product, err := parseProduct(distinct[i], fields)
		if err != nil {
			return nil, err
		}
		result = append(result, product)
	}
	return result, nil
}

// UpdateQuantities пишет новые остатки одним pipeline.
func (c *InventoryCatalog) UpdateQuantities(updates []domain.QuantityUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	pipe := c.client.Pipeline()
	for _, update := range updates {
		pipe.HSet(ctx, productKeyPrefix+update.ProductID, fieldQuantity, int64(update.Quantity))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update product quantities in redis: %w", err)
	}
	return nil
}

func parseProduct(id string, fields map[string]string) (domain.Product, error) {
	price, err := strconv.ParseInt(fields[fieldPriceMinor], 10, 64)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse price of product %s: %w", id, err)
	}
	qty, err := strconv.ParseInt(fields[fieldQuantity], 10, 32)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse quantity of product %s: %w", id, err)
	}

	return domain.Product{
		ID:         id,
		Name:       fields[fieldName],
		PriceMinor: price,
		Quantity:   int32(qty),
	}, nil
}

var _ domain.InventoryCatalog = (*InventoryCatalog)(nil)
