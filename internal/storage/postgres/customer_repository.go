package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository создаёт PostgreSQL-реализацию CustomerDirectory.
func NewCustomerRepository(store *Store) *customerRepository {
	return &customerRepository{db: store.DB()}
}

// Create регистрирует нового клиента.
func (r *customerRepository) Create(customer domain.Customer) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	now := time.Now().UTC()
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = now
		customer.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
	`,
		customer.ID, customer.Name, customer.Email, customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCustomerExists
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// FindByID возвращает клиента или ErrCustomerNotFound, если его нет.
func (r *customerRepository) FindByID(id string) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var customer domain.Customer
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM customers
		WHERE id = $1
	`, id).Scan(
		&customer.ID, &customer.Name, &customer.Email, &customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("select customer: %w", err)
	}
	return customer, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.CustomerDirectory = (*customerRepository)(nil)
