package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"kiosk/internal/directory"
	dErrors "kiosk/pkg/domain-errors"
)

type RegistrationSuite struct {
	suite.Suite
	svc *Service
	ctx context.Context
}

func (s *RegistrationSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.svc = New(directory.NewInMemory(), logger)
	s.ctx = context.Background()
}

func TestRegistrationSuite(t *testing.T) {
	suite.Run(t, new(RegistrationSuite))
}

func validForm() Registration {
	return Registration{
		FirstName: "Anna",
		LastName:  "Petrova",
		Phone:     "+70000000001",
		Address:   "Lenina 1",
		AdConsent: true,
	}
}

func (s *RegistrationSuite) TestRegisterCreatesUser() {
	user, err := s.svc.Register(s.ctx, validForm())
	s.Require().NoError(err)
	s.NotZero(user.ID)

	found, err := s.svc.FindByPhone(s.ctx, "+70000000001")
	s.Require().NoError(err)
	s.Equal(user.ID, found.ID)
}

func (s *RegistrationSuite) TestRegisterValidation() {
	cases := []struct {
		name   string
		mutate func(*Registration)
	}{
		{"missing first name", func(r *Registration) { r.FirstName = " " }},
		{"missing last name", func(r *Registration) { r.LastName = "" }},
		{"missing phone", func(r *Registration) { r.Phone = "" }},
		{"missing address", func(r *Registration) { r.Address = "" }},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			form := validForm()
			tc.mutate(&form)
			_, err := s.svc.Register(s.ctx, form)
			s.Require().Error(err)
			s.True(dErrors.Is(err, dErrors.CodeBadRequest))
		})
	}
}

func (s *RegistrationSuite) TestRegisterDuplicatePhone() {
	_, err := s.svc.Register(s.ctx, validForm())
	s.Require().NoError(err)

	_, err = s.svc.Register(s.ctx, validForm())
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeConflict))
}

func (s *RegistrationSuite) TestFindByPhoneMiss() {
	_, err := s.svc.FindByPhone(s.ctx, "+79990000000")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}
