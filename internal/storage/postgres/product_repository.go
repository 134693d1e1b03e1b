package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию InventoryCatalog.
func NewProductRepository(store *Store) *productRepository {
	return &productRepository{db: store.DB()}
}

// Create регистрирует новый товар в каталоге.
func (r *productRepository) Create(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
		product.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price_minor, quantity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		product.ID, product.Name, product.PriceMinor, product.Quantity,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProductExists
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// FindAllByIDs возвращает существующие товары в порядке запрошенных
// идентификаторов; отсутствующие пропускаются.
func (r *productRepository) FindAllByIDs(ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	placeholders := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, price_minor, quantity, created_at, updated_at
		FROM products
		WHERE id IN (%s)
	`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.PriceMinor, &product.Quantity,
			&product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		byID[product.ID] = product
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	// Выравниваем порядок результата под порядок запрошенных идентификаторов.
	result := make([]domain.Product, 0, len(byID))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if product, ok := byID[id]; ok {
			result = append(result, product)
		}
	}
	return result, nil
}

// UpdateQuantities применяет новые абсолютные остатки одной транзакцией.
func (r *productRepository) UpdateQuantities(updates []domain.QuantityUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for _, update := range updates {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE products
			SET quantity = $1,
			    updated_at = $2
			WHERE id = $3
		`, update.Quantity, now, update.ProductID)
		if err != nil {
			return fmt.Errorf("update product quantity: %w", err)
		}

		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			err = &domain.ProductNotFoundError{ProductID: update.ProductID}
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit quantity updates: %w", err)
	}
	return nil
}

var _ domain.InventoryCatalog = (*productRepository)(nil)
