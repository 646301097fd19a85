package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the identity envelope extracted from a verified token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

// TokenCodec creates and verifies compact signed tokens (JWT, HS256).
//
// Two distinct secrets are held so that a leaked access-token secret cannot
// be used to forge refresh tokens. Access tokens embed their expiry and are
// verified statelessly. Refresh tokens deliberately carry no expiry claim;
// their validity window is store-controlled so revocation works.
type TokenCodec struct {
	issuer        string
	accessTTL     time.Duration
	clockSkew     time.Duration
	accessSecret  []byte
	refreshSecret []byte
}

// NewTokenCodec builds a TokenCodec from config. The config secrets must
// already have passed Config.Validate.
func NewTokenCodec(cfg Config) (*TokenCodec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TokenCodec{
		issuer:        cfg.Issuer,
		accessTTL:     cfg.AccessTTL,
		clockSkew:     cfg.ClockSkew,
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
	}, nil
}

// IssueAccess signs a self-contained access token for subject.
func (c *TokenCodec) IssueAccess(subject string, now time.Time) (token string, exp time.Time, err error) {
	exp = now.Add(c.accessTTL)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	token, err = t.SignedString(c.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// IssueRefresh signs a refresh token for subject. No "exp" claim is set:
// expiry is tracked only on the persisted record. The "jti" claim keeps
// tokens issued within the same second distinct, since the token string
// itself is the store key.
func (c *TokenCodec) IssueRefresh(subject string, now time.Time) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Issuer:   c.issuer,
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	})
	return t.SignedString(c.refreshSecret)
}

// VerifyAccess checks an access token's signature and embedded expiry
// against the access secret and returns its claims.
func (c *TokenCodec) VerifyAccess(token string, now time.Time) (Claims, error) {
	return c.verify(token, now, c.accessSecret, true)
}

// VerifyRefresh checks a refresh token's signature against the refresh
// secret and returns the subject. Expiry is the store's concern, not ours.
func (c *TokenCodec) VerifyRefresh(token string) (string, error) {
	claims, err := c.verify(token, time.Now().UTC(), c.refreshSecret, false)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (c *TokenCodec) verify(token string, now time.Time, secret []byte, requireExp bool) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithLeeway(c.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if requireExp {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
