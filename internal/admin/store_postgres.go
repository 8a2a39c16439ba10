package admin

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"kiosk/pkg/platform/sentinel"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const adminColumns = `id, first_name, last_name, middle_name, phone_number, email, address, salary, password_hash, is_active, created_at`

func (s *Postgres) Create(ctx context.Context, a *Admin) (*Admin, error) {
	query := `
		INSERT INTO admins (first_name, last_name, middle_name, phone_number, email, address, salary, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, NOW())
		RETURNING ` + adminColumns
	created, err := scanAdmin(s.db.QueryRowContext(ctx, query,
		a.FirstName,
		a.LastName,
		nullString(a.MiddleName),
		a.Phone,
		nullString(a.Email),
		nullString(a.Address),
		a.Salary,
		a.PasswordHash,
	))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return created, nil
}

func (s *Postgres) FindByPhone(ctx context.Context, phone string) (*Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE phone_number = $1`
	a, err := scanAdmin(s.db.QueryRowContext(ctx, query, phone))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return a, nil
}

func scanAdmin(row *sql.Row) (*Admin, error) {
	var (
		a             Admin
		middle, email sql.NullString
		address       sql.NullString
		salary        sql.NullFloat64
	)
	err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &middle, &a.Phone, &email,
		&address, &salary, &a.PasswordHash, &a.IsActive, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.MiddleName = middle.String
	a.Email = email.String
	a.Address = address.String
	a.Salary = salary.Float64
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
