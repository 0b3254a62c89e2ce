package service

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hadirq/ledger-api/pkg/config"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
)

// OperatorClaims are the JWT claims carried by an operator token.
type OperatorClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// AuthService issues and validates operator tokens for the admin surface.
// There is a single shared access key; the token exists so the key itself
// never travels on every admin request.
type AuthService struct {
	config config.AuthConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{config: cfg, logger: logger, now: time.Now}
}

// IssueToken exchanges the operator access key for a signed token.
func (s *AuthService) IssueToken(accessKey, operatorName string) (string, time.Time, error) {
	if subtle.ConstantTimeCompare([]byte(accessKey), []byte(s.config.Secret)) != 1 {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrUnauthorized, "invalid access key")
	}
	if operatorName == "" {
		operatorName = "operator"
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.config.Expiration)
	claims := OperatorClaims{
		Name: operatorName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   operatorName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	s.logger.Info("operator token issued", zap.String("operator", operatorName))
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies an operator token.
func (s *AuthService) ValidateToken(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}
