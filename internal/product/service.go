package product

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hilo/internal/audit"
	"hilo/internal/platform/metrics"
	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
	"hilo/pkg/platform/sentinel"
)

// Store is the persistence boundary for product tokens. Execute holds the
// record lock across validate and mutate so every transition applies against
// the same state it was checked against. ListByAccount returns the full
// historical set: every token the account created or ever owned.
type Store interface {
	Create(ctx context.Context, token *Token) error
	FindByID(ctx context.Context, id domain.TokenID) (*Token, error)
	ListByAccount(ctx context.Context, account domain.AccountID) ([]*Token, error)
	Execute(ctx context.Context, id domain.TokenID, validate func(*Token) error, mutate func(*Token)) (*Token, error)
	Count(ctx context.Context) (int, error)
}

// RoleReader resolves the role bound to an account.
type RoleReader interface {
	RoleOf(ctx context.Context, account domain.AccountID) (domain.Role, error)
}

// AuditPublisher records committed mutations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service is the product registry.
type Service struct {
	store   Store
	roles   RoleReader
	logger  *slog.Logger
	auditor AuditPublisher
	metrics *metrics.Metrics
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

func NewService(store Store, roles RoleReader, opts ...Option) *Service {
	s := &Service{store: store, roles: roles, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add mints a product token with state Created, owned by the caller.
// Producer-only.
func (s *Service) Add(ctx context.Context, caller domain.AccountID, name string, quantity uint64) (*Token, error) {
	role, err := s.roles.RoleOf(ctx, caller)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleProducer {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only producers may add products")
	}

	token, err := NewToken(name, quantity, caller, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, token); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint product token")
	}

	s.emit(ctx, caller, audit.ActionTokenMinted, token.ID, token.Name)
	if s.metrics != nil {
		s.metrics.TokensMinted.WithLabelValues("product").Inc()
	}
	return token, nil
}

// TransferToTailor moves a Created token to the target account and sets it
// Pending. Only the current owner may call.
func (s *Service) TransferToTailor(ctx context.Context, caller, target domain.AccountID, id domain.TokenID) (*Token, error) {
	if target.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "target account is required")
	}
	if _, err := s.roles.RoleOf(ctx, target); err != nil {
		return nil, err
	}

	token, err := s.transition(ctx, caller, id, domain.StatePending, func(t *Token) {
		t.Owner = target
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, caller, audit.ActionTokenTransfer, id, "to "+target.String())
	return token, nil
}

// Accept moves a Pending token to Accepted. Only the current owner may call.
func (s *Service) Accept(ctx context.Context, caller domain.AccountID, id domain.TokenID) (*Token, error) {
	token, err := s.transition(ctx, caller, id, domain.StateAccepted, nil)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, caller, audit.ActionTokenAccepted, id, "")
	return token, nil
}

// Reject moves a Pending token to Rejected, a terminal state. Ownership is
// not returned to the creator.
func (s *Service) Reject(ctx context.Context, caller domain.AccountID, id domain.TokenID) (*Token, error) {
	token, err := s.transition(ctx, caller, id, domain.StateRejected, nil)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, caller, audit.ActionTokenRejected, id, "")
	return token, nil
}

// Delete moves a Created token to Deleted. Admin-only.
func (s *Service) Delete(ctx context.Context, caller domain.AccountID, id domain.TokenID) (*Token, error) {
	role, err := s.roles.RoleOf(ctx, caller)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only admins may delete products")
	}

	token, err := s.store.Execute(ctx, id,
		func(t *Token) error {
			return t.CanTransition(domain.StateDeleted)
		},
		func(t *Token) {
			t.State = domain.StateDeleted
		},
	)
	if err != nil {
		return nil, wrapTokenErr(err)
	}

	s.emit(ctx, caller, audit.ActionTokenDeleted, id, "")
	s.countTransition(domain.StateDeleted)
	return token, nil
}

// Get returns the token when the requesting account created it or currently
// owns it.
func (s *Service) Get(ctx context.Context, id domain.TokenID, account domain.AccountID) (*Token, error) {
	token, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapTokenErr(err)
	}
	if token.Owner != account && token.Creator != account {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "account neither owns nor created this token")
	}
	return token, nil
}

// TokensOwnedOrCreatedBy returns the full historical set for audit views.
func (s *Service) TokensOwnedOrCreatedBy(ctx context.Context, account domain.AccountID) ([]*Token, error) {
	return s.store.ListByAccount(ctx, account)
}

// ConsumeAccepted marks an Accepted token consumed so it cannot be used as an
// origin twice. Only the current owner may consume; called by the garment
// registry inside a ledger transaction.
func (s *Service) ConsumeAccepted(ctx context.Context, caller domain.AccountID, id domain.TokenID) (*Token, error) {
	token, err := s.store.Execute(ctx, id,
		func(t *Token) error {
			if t.Owner != caller {
				return dErrors.New(dErrors.CodeUnauthorized, "caller is not the current owner")
			}
			if t.Consumed {
				return dErrors.New(dErrors.CodeInvalidState, "origin token already consumed")
			}
			if t.State != domain.StateAccepted {
				return dErrors.New(dErrors.CodeInvalidState, "origin token is not accepted")
			}
			return nil
		},
		func(t *Token) {
			t.Consumed = true
		},
	)
	if err != nil {
		return nil, wrapTokenErr(err)
	}

	s.emit(ctx, token.Owner, audit.ActionTokenConsumed, id, "")
	return token, nil
}

// transition applies an owner-gated state change through the store's Execute
// so check and effect happen against the same committed state.
func (s *Service) transition(ctx context.Context, caller domain.AccountID, id domain.TokenID, to domain.State, extra func(*Token)) (*Token, error) {
	token, err := s.store.Execute(ctx, id,
		func(t *Token) error {
			if t.Owner != caller {
				return dErrors.New(dErrors.CodeUnauthorized, "caller is not the current owner")
			}
			return t.CanTransition(to)
		},
		func(t *Token) {
			t.State = to
			if extra != nil {
				extra(t)
			}
		},
	)
	if err != nil {
		return nil, wrapTokenErr(err)
	}
	s.countTransition(to)
	return token, nil
}

func (s *Service) countTransition(to domain.State) {
	if s.metrics != nil {
		s.metrics.StateTransitions.WithLabelValues("product", to.String()).Inc()
	}
}

func (s *Service) emit(ctx context.Context, account domain.AccountID, action string, id domain.TokenID, detail string) {
	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{
			Account:  account.String(),
			Action:   action,
			Registry: "product",
			TokenID:  id,
			Detail:   detail,
		})
	}
}

func wrapTokenErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "unknown token id")
	}
	return err
}
