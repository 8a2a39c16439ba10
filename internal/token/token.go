// Package token mints and validates the session tokens the kiosk terminal
// holds after a successful code verification or admin login.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "kiosk/pkg/domain-errors"
)

// Roles carried in session claims.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Claims represents the JWT claims for kiosk session tokens.
type Claims struct {
	SubjectID string `json:"subject_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// Mint issues a signed session token for the subject with the given role.
func (s *Service) Mint(subjectID int64, role string, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SubjectID: strconv.FormatInt(subjectID, 10),
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Validate parses and verifies a session token.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// SubjectID extracts the numeric subject from validated claims.
func (c *Claims) SubjectIDInt() (int64, error) {
	return strconv.ParseInt(c.SubjectID, 10, 64)
}
