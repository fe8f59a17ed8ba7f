package auth

import (
	"errors"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"morse-quiz-service/internal/domain"
)

// Claims carried by session tokens.
type Claims struct {
	UID  string `json:"uid"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens. Signed-out tokens are remembered
// until they would have expired anyway.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // token id -> expiry
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

func (t *Tokens) Issue(identity domain.Identity) (string, error) {
	now := t.now()
	claims := Claims{
		UID:  identity.UserID,
		Name: identity.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify returns the identity behind a valid, unrevoked token.
func (t *Tokens) Verify(token string) (domain.Identity, error) {
	claims, err := t.parse(token)
	if err != nil {
		return domain.Identity{}, err
	}
	t.mu.Lock()
	_, revoked := t.revoked[claims.ID]
	t.mu.Unlock()
	if revoked {
		return domain.Identity{}, domain.ErrInvalidToken
	}
	return domain.Identity{UserID: claims.UID, DisplayName: claims.Name}, nil
}

// Revoke invalidates a token and returns the identity it carried.
func (t *Tokens) Revoke(token string) (domain.Identity, error) {
	claims, err := t.parse(token)
	if err != nil {
		return domain.Identity{}, err
	}
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, exp := range t.revoked {
		if exp.Before(now) {
			delete(t.revoked, id)
		}
	}
	expiry := now.Add(t.ttl)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	t.revoked[claims.ID] = expiry
	return domain.Identity{UserID: claims.UID, DisplayName: claims.Name}, nil
}

func (t *Tokens) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UID == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
