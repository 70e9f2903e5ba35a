// Package token issues and verifies the signed access tokens handed out at
// login.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers malformed, expired or wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified content of an access token.
type Claims struct {
	UserID    uint
	Role      string
	ID        string
	ExpiresAt time.Time
}

// Manager signs tokens with an HMAC secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager constructs a token manager. A non-positive ttl defaults to seven days.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the account and returns it with its claims.
func (m *Manager) Issue(userID uint, role string) (string, Claims, error) {
	issuedAt := m.now()
	claims := Claims{
		UserID:    userID,
		Role:      role,
		ID:        uuid.NewString(),
		ExpiresAt: issuedAt.Add(m.ttl),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"role": role,
		"jti":  claims.ID,
		"iat":  issuedAt.Unix(),
		"exp":  claims.ExpiresAt.Unix(),
	}).SignedString(m.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, claims, nil
}

// Parse verifies the signature and expiry of raw and returns its claims.
func (m *Manager) Parse(raw string) (Claims, error) {
	parsed, err := jwt.Parse(strings.TrimSpace(raw), func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	subject, err := mapClaims.GetSubject()
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(subject, 10, 64)
	if err != nil || userID == 0 {
		return Claims{}, ErrInvalidToken
	}

	role, _ := mapClaims["role"].(string)
	tokenID, _ := mapClaims["jti"].(string)
	if role == "" || tokenID == "" {
		return Claims{}, ErrInvalidToken
	}

	expiresAt, err := mapClaims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		UserID:    uint(userID),
		Role:      strings.ToLower(role),
		ID:        tokenID,
		ExpiresAt: expiresAt.Time,
	}, nil
}
