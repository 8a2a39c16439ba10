package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"kiosk/internal/authcode/models"
	"kiosk/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newUser(phone string) *User {
	return &User{
		FirstName: "Anna",
		LastName:  "Petrova",
		Phone:     phone,
		Address:   "Lenina 1",
	}
}

func (s *MemoryStoreSuite) TestCreateAndLookups() {
	created, err := s.store.Create(s.ctx, s.newUser("+70000000001"))
	s.Require().NoError(err)
	s.NotZero(created.ID)
	s.False(created.RegisteredAt.IsZero())

	byID, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Phone, byID.Phone)

	byPhone, err := s.store.FindByPhone(s.ctx, "+70000000001")
	s.Require().NoError(err)
	s.Equal(created.ID, byPhone.ID)

	_, err = s.store.FindByID(s.ctx, 999)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestPhoneUniqueness() {
	_, err := s.store.Create(s.ctx, s.newUser("+70000000001"))
	s.Require().NoError(err)

	_, err = s.store.Create(s.ctx, s.newUser("+70000000001"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *MemoryStoreSuite) TestEmailUniqueness() {
	first := s.newUser("+70000000001")
	first.Email = "anna@example.com"
	_, err := s.store.Create(s.ctx, first)
	s.Require().NoError(err)

	second := s.newUser("+70000000002")
	second.Email = "anna@example.com"
	_, err = s.store.Create(s.ctx, second)
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	// Empty emails never collide.
	third := s.newUser("+70000000003")
	fourth := s.newUser("+70000000004")
	_, err = s.store.Create(s.ctx, third)
	s.Require().NoError(err)
	_, err = s.store.Create(s.ctx, fourth)
	s.Require().NoError(err)
}

func (s *MemoryStoreSuite) TestSetChatIDAndFindByChatID() {
	created, err := s.store.Create(s.ctx, s.newUser("+70000000001"))
	s.Require().NoError(err)
	s.False(created.Linked())

	s.Require().NoError(s.store.SetChatID(s.ctx, created.ID, models.ChatID(555)))

	linked, err := s.store.FindByChatID(s.ctx, models.ChatID(555))
	s.Require().NoError(err)
	s.Equal(created.ID, linked.ID)
	s.True(linked.Linked())

	s.Require().ErrorIs(s.store.SetChatID(s.ctx, 999, models.ChatID(1)), sentinel.ErrNotFound)
}
