package share

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zeptools/gw-docgen/documents"
	"github.com/zeptools/gw-docgen/sec"
)

var ErrInvalidToken = errors.New("invalid share token")

// Claims of a share link. Subject is the document id.
type Claims struct {
	Type documents.Type `json:"typ"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies share links, signed HS256 with a shared secret
type Tokens struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokens(secret []byte, ttl time.Duration, issuer string) *Tokens {
	return &Tokens{secret: secret, ttl: ttl, issuer: issuer, now: time.Now}
}

func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// IssueToken returns the signed token and its expiry
func (t *Tokens) IssueToken(id string, typ documents.Type) (string, time.Time, error) {
	if id == "" {
		return "", time.Time{}, fmt.Errorf("share: empty document id")
	}
	now := t.now()
	exp := now.Add(t.ttl).Truncate(time.Second)
	signed, err := sec.SignHS256(Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}, t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("share: sign: %w", err)
	}
	return signed, exp, nil
}

// ParseToken returns the claims of a valid, unexpired token; ErrInvalidToken otherwise
func (t *Tokens) ParseToken(signed string) (*Claims, error) {
	var claims Claims
	opts := []jwt.ParserOption{jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired()}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	token, err := sec.ParseHS256(signed, &claims, t.secret, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
