package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"folio/cmd/identity"
)

// CredentialVerifier is the user-store collaborator used during login.
// It is satisfied by *identity.PostgresStore.
type CredentialVerifier interface {
	GetUserAuthByEmail(ctx context.Context, email string) (identity.UserAuth, error)
}

// Service orchestrates the session lifecycle: login issues an access token
// plus a persisted refresh token; refresh validates a presented token
// against the store and the refresh secret and mints a new access token.
type Service struct {
	cfg   Config
	log   *slog.Logger
	codec *TokenCodec
	store Store
	users CredentialVerifier
}

// Issued is the result of a successful login.
type Issued struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             identity.User
}

// Refreshed is the result of a successful refresh. RefreshToken is empty
// unless rotate-on-use is enabled, in which case it replaces the token the
// client presented.
type Refreshed struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// NewService constructs a session Service.
func NewService(cfg Config, log *slog.Logger, codec *TokenCodec, store Store, users CredentialVerifier) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{cfg: cfg, log: log, codec: codec, store: store, users: users}
}

// Login verifies credentials and issues a token pair.
//
// Failure modes: ErrUserNotFound for an unknown identifier (the lookup is
// case-insensitive), ErrBadCredentials for a hash mismatch, ErrInternal
// for store/codec trouble. The refresh-token record is durably written
// before the tokens are returned; a login must never hand out a refresh
// token the store does not know about.
func (s *Service) Login(ctx context.Context, email, password string) (Issued, error) {
	const op = "session.Login"

	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	ua, err := s.users.GetUserAuthByEmail(opCtx, email)
	if err != nil {
		if identity.IsNotFound(err) {
			return Issued{}, ErrUserNotFound
		}
		return Issued{}, internalErr(op, err)
	}

	ok, err := identity.VerifyPassword(password, ua.PasswordHash)
	if err != nil {
		return Issued{}, internalErr(op, err)
	}
	if !ok {
		return Issued{}, ErrBadCredentials
	}

	now := time.Now().UTC()

	access, accessExp, err := s.codec.IssueAccess(ua.User.ID, now)
	if err != nil {
		return Issued{}, internalErr(op, err)
	}
	refresh, err := s.codec.IssueRefresh(ua.User.ID, now)
	if err != nil {
		return Issued{}, internalErr(op, err)
	}

	refreshExp := now.Add(s.cfg.RefreshTTL)
	if err := s.store.Create(opCtx, Record{Subject: ua.User.ID, Token: refresh, ExpiresAt: refreshExp}); err != nil {
		return Issued{}, internalErr(op, err)
	}

	return Issued{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
		User:             ua.User,
	}, nil
}

// Refresh validates a presented refresh token and issues a new access token.
//
// The token must both match a live stored record AND verify under the
// refresh secret. A record whose token fails verification is revoked on the
// spot (defensive revocation): a structurally invalid token that matched a
// stored string means the session is compromised or stale, so the whole
// session is invalidated rather than just this call rejected.
func (s *Service) Refresh(ctx context.Context, token string) (Refreshed, error) {
	const op = "session.Refresh"

	token = strings.TrimSpace(token)
	// Sanity bounds to avoid pathological inputs.
	if token == "" || len(token) > 4096 {
		return Refreshed{}, ErrTokenNotFound
	}

	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	now := time.Now().UTC()

	rec, err := s.store.FindByToken(opCtx, token, now)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return Refreshed{}, ErrTokenNotFound
		}
		return Refreshed{}, internalErr(op, err)
	}

	subject, err := s.codec.VerifyRefresh(token)
	if err != nil || subject != rec.Subject {
		s.revokeDefensively(rec.Token)
		return Refreshed{}, ErrInvalidToken
	}

	access, accessExp, err := s.codec.IssueAccess(subject, now)
	if err != nil {
		return Refreshed{}, internalErr(op, err)
	}

	out := Refreshed{AccessToken: access, AccessExpiresAt: accessExp}

	if s.cfg.RotateOnUse {
		next, err := s.codec.IssueRefresh(subject, now)
		if err != nil {
			return Refreshed{}, internalErr(op, err)
		}
		nextExp := now.Add(s.cfg.RefreshTTL)
		if err := s.store.Create(opCtx, Record{Subject: subject, Token: next, ExpiresAt: nextExp}); err != nil {
			return Refreshed{}, internalErr(op, err)
		}
		if err := s.store.Delete(opCtx, rec.Token); err != nil {
			// The superseded record self-expires; log and keep the response.
			s.log.Error("session.rotate.delete.fail", "err", err)
		}
		out.RefreshToken = next
		out.RefreshExpiresAt = nextExp
	}

	return out, nil
}

// Authenticate verifies an access token for a protected request and
// returns its claims. Verification is stateless: signature plus embedded
// expiry, no store lookup.
func (s *Service) Authenticate(token string, now time.Time) (Claims, error) {
	return s.codec.VerifyAccess(token, now)
}

// RevokeSubject deletes every refresh-token record owned by subject. It is
// the required cleanup when an account is removed.
func (s *Service) RevokeSubject(ctx context.Context, subject string) error {
	const op = "session.RevokeSubject"

	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	if err := s.store.DeleteBySubject(opCtx, subject); err != nil {
		return internalErr(op, err)
	}
	return nil
}

// revokeDefensively deletes a stored record after a failed verification.
// The refresh response fails regardless of the outcome here, so the delete
// runs on its own deadline, detached from the request context; a failure
// leaves a stale record that passive expiry will eventually collect, but
// it must be visible in logs.
func (s *Service) revokeDefensively(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.OpTimeout)
	defer cancel()

	if err := s.store.Delete(ctx, token); err != nil {
		s.log.Error("session.defensive_revoke.fail", "err", err)
	}
}

func internalErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}
