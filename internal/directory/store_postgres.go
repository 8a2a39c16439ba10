package directory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"kiosk/internal/authcode/models"
	"kiosk/pkg/platform/sentinel"
)

// Postgres persists users in the kiosk database. Pure I/O; uniqueness and
// not-found facts surface as sentinels for the service layer to translate.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const userColumns = `id, first_name, last_name, middle_name, phone_number, email, address, ad_consent, registration_date, telegram_chat_id`

func (s *Postgres) Create(ctx context.Context, user *User) (*User, error) {
	query := `
		INSERT INTO users (first_name, last_name, middle_name, phone_number, email, address, ad_consent, registration_date, telegram_chat_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), 0)
		RETURNING ` + userColumns
	created, err := scanUser(s.db.QueryRowContext(ctx, query,
		user.FirstName,
		user.LastName,
		nullString(user.MiddleName),
		user.Phone,
		nullString(user.Email),
		user.Address,
		user.AdConsent,
	))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (s *Postgres) FindByID(ctx context.Context, id models.UserID) (*User, error) {
	return s.findBy(ctx, "id = $1", int64(id))
}

func (s *Postgres) FindByPhone(ctx context.Context, phone string) (*User, error) {
	return s.findBy(ctx, "phone_number = $1", phone)
}

func (s *Postgres) FindByChatID(ctx context.Context, chatID models.ChatID) (*User, error) {
	return s.findBy(ctx, "telegram_chat_id = $1", int64(chatID))
}

func (s *Postgres) SetChatID(ctx context.Context, id models.UserID, chatID models.ChatID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET telegram_chat_id = $2 WHERE id = $1`,
		int64(id), int64(chatID))
	if err != nil {
		return fmt.Errorf("set chat id: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set chat id: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) findBy(ctx context.Context, where string, arg any) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u          User
		id, chatID int64
		middle     sql.NullString
		email      sql.NullString
	)
	err := row.Scan(&id, &u.FirstName, &u.LastName, &middle, &u.Phone, &email,
		&u.Address, &u.AdConsent, &u.RegisteredAt, &chatID)
	if err != nil {
		return nil, err
	}
	u.ID = models.UserID(id)
	u.MiddleName = middle.String
	u.Email = email.String
	u.TelegramChatID = models.ChatID(chatID)
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
