//go:build integration

package directory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"kiosk/internal/authcode/models"
	"kiosk/internal/directory"
	"kiosk/pkg/platform/sentinel"
	"kiosk/pkg/testutil/containers"
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
    id                BIGSERIAL PRIMARY KEY,
    first_name        TEXT        NOT NULL,
    last_name         TEXT        NOT NULL,
    middle_name       TEXT,
    phone_number      TEXT        NOT NULL UNIQUE,
    email             TEXT        UNIQUE,
    address           TEXT        NOT NULL,
    ad_consent        BOOLEAN     NOT NULL DEFAULT FALSE,
    registration_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    telegram_chat_id  BIGINT      NOT NULL DEFAULT 0
);`

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *directory.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), usersSchema)
	s.store = directory.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "users"))
}

func newTestUser(phone string) *directory.User {
	return &directory.User{
		FirstName: "Anna",
		LastName:  "Petrova",
		Phone:     phone,
		Address:   "Lenina 1",
		AdConsent: true,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()

	created, err := s.store.Create(ctx, newTestUser("+70000000001"))
	s.Require().NoError(err)
	s.NotZero(created.ID)
	s.False(created.RegisteredAt.IsZero())
	s.False(created.Linked())

	byID, err := s.store.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("+70000000001", byID.Phone)

	byPhone, err := s.store.FindByPhone(ctx, "+70000000001")
	s.Require().NoError(err)
	s.Equal(created.ID, byPhone.ID)

	_, err = s.store.FindByID(ctx, 424242)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestPhoneUniqueness() {
	ctx := context.Background()

	_, err := s.store.Create(ctx, newTestUser("+70000000001"))
	s.Require().NoError(err)

	_, err = s.store.Create(ctx, newTestUser("+70000000001"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestSetChatID() {
	ctx := context.Background()

	created, err := s.store.Create(ctx, newTestUser("+70000000001"))
	s.Require().NoError(err)

	s.Require().NoError(s.store.SetChatID(ctx, created.ID, models.ChatID(987654)))

	linked, err := s.store.FindByChatID(ctx, models.ChatID(987654))
	s.Require().NoError(err)
	s.Equal(created.ID, linked.ID)

	s.Require().ErrorIs(s.store.SetChatID(ctx, 424242, models.ChatID(1)), sentinel.ErrNotFound)
}
