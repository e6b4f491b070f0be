package auth

import (
	"fmt"
	"time"

	"github.com/bangsu-tech/estimate-api/internal/config"
	"github.com/bangsu-tech/estimate-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the JWT payload carried by access tokens
type Claims struct {
	Email       string   `json:"email"`
	DisplayName string   `json:"name"`
	OrgID       string   `json:"org_id"`
	Roles       []string `json:"roles"`
	jwt.RegisteredClaims
}

// JWTValidator validates HS256-signed access tokens
type JWTValidator struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(cfg *config.AuthConfig) *JWTValidator {
	return &JWTValidator{
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: cfg.TokenTTL(),
	}
}

// ValidateToken parses and verifies a token and builds the user context
func (v *JWTValidator) ValidateToken(tokenString string) (*UserContext, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}

	orgID, err := uuid.Parse(claims.OrgID)
	if err != nil {
		return nil, fmt.Errorf("token carries invalid org id: %w", err)
	}

	roles := make([]domain.UserRoleType, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		roles = append(roles, domain.UserRoleType(r))
	}

	return &UserContext{
		UserID:      claims.Subject,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
		Roles:       roles,
		OrgID:       orgID,
	}, nil
}

// IssueToken signs a new access token for a user and returns its expiry
func (v *JWTValidator) IssueToken(user *domain.User) (string, time.Time, error) {
	if user.OrgID == nil {
		return "", time.Time{}, fmt.Errorf("user has no org assigned")
	}

	now := time.Now().UTC()
	expiresAt := now.Add(v.tokenTTL)
	claims := Claims{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		OrgID:       user.OrgID.String(),
		Roles:       user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}
