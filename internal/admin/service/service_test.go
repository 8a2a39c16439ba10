package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kiosk/internal/admin"
	"kiosk/internal/token"
	dErrors "kiosk/pkg/domain-errors"
)

type AdminServiceSuite struct {
	suite.Suite
	svc    *Service
	tokens *token.Service
	ctx    context.Context
}

func (s *AdminServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.tokens = token.NewService("test-key", "kiosk")
	s.svc = New(admin.NewInMemory(), s.tokens, logger, time.Hour)
	s.ctx = context.Background()
}

func TestAdminServiceSuite(t *testing.T) {
	suite.Run(t, new(AdminServiceSuite))
}

func (s *AdminServiceSuite) createAdmin(phone, password string) *admin.Admin {
	created, err := s.svc.Create(s.ctx, admin.Admin{
		FirstName: "Olga",
		LastName:  "Ivanova",
		Phone:     phone,
	}, password)
	s.Require().NoError(err)
	return created
}

func (s *AdminServiceSuite) TestAuthenticateSuccess() {
	created := s.createAdmin("+79990000001", "s3cret")

	signed, err := s.svc.Authenticate(s.ctx, "+79990000001", "s3cret")
	s.Require().NoError(err)

	claims, err := s.tokens.Validate(signed)
	s.Require().NoError(err)
	s.Equal(token.RoleAdmin, claims.Role)

	id, err := claims.SubjectIDInt()
	s.Require().NoError(err)
	s.Equal(created.ID, id)
}

func (s *AdminServiceSuite) TestAuthenticateWrongPassword() {
	s.createAdmin("+79990000001", "s3cret")

	_, err := s.svc.Authenticate(s.ctx, "+79990000001", "wrong")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *AdminServiceSuite) TestAuthenticateUnknownPhone() {
	_, err := s.svc.Authenticate(s.ctx, "+79990000009", "whatever")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *AdminServiceSuite) TestAuthenticateMissingInput() {
	_, err := s.svc.Authenticate(s.ctx, "", "")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}

func (s *AdminServiceSuite) TestCreateDuplicatePhone() {
	s.createAdmin("+79990000001", "s3cret")

	_, err := s.svc.Create(s.ctx, admin.Admin{
		FirstName: "Olga",
		LastName:  "Ivanova",
		Phone:     "+79990000001",
	}, "other")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeConflict))
}

func (s *AdminServiceSuite) TestCreateRejectsEmptyPassword() {
	_, err := s.svc.Create(s.ctx, admin.Admin{
		FirstName: "Olga",
		LastName:  "Ivanova",
		Phone:     "+79990000002",
	}, "")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}
