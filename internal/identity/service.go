package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"hilo/internal/audit"
	"hilo/internal/platform/metrics"
	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
	"hilo/pkg/platform/sentinel"
)

// Store is the persistence boundary for user records. CreateIfAvailable must
// reject an already-bound account or name with sentinel.ErrAlreadyUsed.
// Execute holds the record lock across validate and mutate so session flips
// are atomic.
type Store interface {
	CreateIfAvailable(ctx context.Context, user *User) error
	FindByAccount(ctx context.Context, account domain.AccountID) (*User, error)
	FindByName(ctx context.Context, name string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Execute(ctx context.Context, account domain.AccountID, validate func(*User) error, mutate func(*User)) (*User, error)
}

// SessionMirror optionally reflects session-active flags into a shared cache
// so other instances can consult them without hitting the primary store.
type SessionMirror interface {
	SetActive(ctx context.Context, account domain.AccountID, active bool) error
}

// TokenMinter signs session tokens at login.
type TokenMinter interface {
	Mint(account domain.AccountID, sessionID uuid.UUID) (string, error)
}

// AuditPublisher records committed identity mutations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service is the identity registry: it gates every mutating registry call by
// role and is the sole authority on session validity.
type Service struct {
	store   Store
	tokens  TokenMinter
	logger  *slog.Logger
	auditor AuditPublisher
	metrics *metrics.Metrics
	mirror  SessionMirror
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithSessionMirror(mirror SessionMirror) Option {
	return func(s *Service) { s.mirror = mirror }
}

func NewService(store Store, tokens TokenMinter, opts ...Option) *Service {
	s := &Service{store: store, tokens: tokens, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with the session inactive. Fails with a validation
// error when the name or account is already bound.
func (s *Service) Register(ctx context.Context, account domain.AccountID, name string, role domain.Role, credential string) (*User, error) {
	hash, err := HashCredential(credential)
	if err != nil {
		return nil, err
	}

	user, err := NewUser(account, name, role, hash, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateIfAvailable(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeValidation, "account or name is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register user")
	}

	s.emit(ctx, audit.Event{Account: account.String(), Action: audit.ActionUserRegistered, Detail: user.Name})
	if s.metrics != nil {
		s.metrics.UsersRegistered.Inc()
	}
	return user, nil
}

// LoginResult carries what the caller needs after a successful login.
type LoginResult struct {
	Role  domain.Role
	Token string
}

// Login verifies the credential, marks the session active, and mints a
// session token. A credential mismatch is an authorization error; the stored
// record is unchanged on any failure.
func (s *Service) Login(ctx context.Context, account domain.AccountID, credential string, userAgent string) (LoginResult, error) {
	device := describeDevice(userAgent)
	now := time.Now()

	user, err := s.store.Execute(ctx, account,
		func(u *User) error {
			return VerifyCredential(credential, u.CredentialHash)
		},
		func(u *User) {
			u.SessionActive = true
			u.LastLoginAt = now
			if device != "" {
				u.Device = device
			}
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "unknown account or invalid credential")
		}
		return LoginResult{}, err
	}

	token, err := s.tokens.Mint(account, uuid.New())
	if err != nil {
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint session token")
	}

	s.mirrorSession(ctx, account, true)
	s.emit(ctx, audit.Event{Account: account.String(), Action: audit.ActionUserLoggedIn, Detail: device})
	return LoginResult{Role: user.Role, Token: token}, nil
}

// Logout clears the session flag. Idempotent: logging out an already-inactive
// session succeeds, and an unknown account is not an error.
func (s *Service) Logout(ctx context.Context, account domain.AccountID) error {
	_, err := s.store.Execute(ctx, account,
		func(*User) error { return nil },
		func(u *User) { u.SessionActive = false },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return err
	}

	s.mirrorSession(ctx, account, false)
	s.emit(ctx, audit.Event{Account: account.String(), Action: audit.ActionUserLoggedOut})
	return nil
}

// ResolveAccount maps a display name to its account id.
func (s *Service) ResolveAccount(ctx context.Context, name string) (domain.AccountID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.AccountID{}, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	user, err := s.store.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.AccountID{}, dErrors.New(dErrors.CodeNotFound, "unknown name: "+name)
		}
		return domain.AccountID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve name")
	}
	return user.Account, nil
}

// RoleOf returns the role bound to an account.
func (s *Service) RoleOf(ctx context.Context, account domain.AccountID) (domain.Role, error) {
	user, err := s.store.FindByAccount(ctx, account)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "unknown account")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return user.Role, nil
}

// ListUsers returns every registered user.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.store.List(ctx)
}

func (s *Service) mirrorSession(ctx context.Context, account domain.AccountID, active bool) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.SetActive(ctx, account, active); err != nil {
		s.logger.WarnContext(ctx, "failed to mirror session flag",
			"account", account.String(),
			"error", err,
		)
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor != nil {
		s.auditor.Emit(ctx, event)
	}
}

// describeDevice condenses a raw User-Agent header into a short device note.
func describeDevice(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	parts := make([]string, 0, 3)
	if name != "" {
		if version != "" {
			parts = append(parts, name+" "+version)
		} else {
			parts = append(parts, name)
		}
	}
	if os := ua.OS(); os != "" {
		parts = append(parts, os)
	}
	if ua.Mobile() {
		parts = append(parts, "mobile")
	}
	return strings.Join(parts, ", ")
}
