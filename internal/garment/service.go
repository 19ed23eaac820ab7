package garment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"hilo/internal/audit"
	"hilo/internal/ledger"
	"hilo/internal/platform/metrics"
	"hilo/internal/product"
	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
	"hilo/pkg/platform/sentinel"
)

// Store is the persistence boundary for garment tokens. Execute holds the
// record lock across validate and mutate. ListByAccount returns the full
// historical set: every token the account created or ever owned.
type Store interface {
	Create(ctx context.Context, token *Token) error
	FindByID(ctx context.Context, id domain.TokenID) (*Token, error)
	ListByAccount(ctx context.Context, account domain.AccountID) ([]*Token, error)
	ListForSale(ctx context.Context) ([]*Token, error)
	Execute(ctx context.Context, id domain.TokenID, validate func(*Token) error, mutate func(*Token)) (*Token, error)
	Count(ctx context.Context) (int, error)
}

// RoleReader resolves the role bound to an account.
type RoleReader interface {
	RoleOf(ctx context.Context, account domain.AccountID) (domain.Role, error)
}

// OriginConsumer marks a product token consumed so it cannot seed two
// garments. Fails unless the caller owns the token and it is Accepted and
// not yet consumed.
type OriginConsumer interface {
	ConsumeAccepted(ctx context.Context, caller domain.AccountID, id domain.TokenID) (*product.Token, error)
}

// AuditPublisher records committed mutations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service is the garment registry.
type Service struct {
	store   Store
	roles   RoleReader
	origins OriginConsumer
	tx      ledger.Tx
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

func NewService(store Store, roles RoleReader, origins OriginConsumer, tx ledger.Tx, opts ...Option) *Service {
	s := &Service{store: store, roles: roles, origins: origins, tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add mints a garment from an accepted origin token the caller owns. The
// origin's consumed mark and the mint commit together: if either fails,
// neither applies. Tailor-only.
func (s *Service) Add(ctx context.Context, caller domain.AccountID, name string, quantity uint64, price decimal.Decimal, origin domain.TokenID) (*Token, error) {
	role, err := s.roles.RoleOf(ctx, caller)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleTailor {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only tailors may add garments")
	}

	token, err := NewToken(name, quantity, price, origin, caller, time.Now())
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.origins.ConsumeAccepted(ctx, caller, origin); err != nil {
			return err
		}
		if err := s.store.Create(ctx, token); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint garment token")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, caller, audit.ActionTokenMinted, token.ID, token.Name)
	if s.metrics != nil {
		s.metrics.TokensMinted.WithLabelValues("garment").Inc()
	}
	return token, nil
}

// SetForSale moves a Created token to ForSale. Only the current owner may
// call.
func (s *Service) SetForSale(ctx context.Context, caller domain.AccountID, id domain.TokenID) (*Token, error) {
	token, err := s.store.Execute(ctx, id,
		func(t *Token) error {
			if t.Owner != caller {
				return dErrors.New(dErrors.CodeUnauthorized, "caller is not the current owner")
			}
			return t.CanTransition(domain.StateForSale)
		},
		func(t *Token) {
			t.State = domain.StateForSale
		},
	)
	if err != nil {
		return nil, wrapTokenErr(err)
	}

	s.emit(ctx, caller, audit.ActionTokenListed, id, "")
	if s.metrics != nil {
		s.metrics.StateTransitions.WithLabelValues("garment", domain.StateForSale.String()).Inc()
	}
	return token, nil
}

// TokensForSaleBy returns the caller's tokens currently listed for sale.
func (s *Service) TokensForSaleBy(ctx context.Context, account domain.AccountID) ([]*Token, error) {
	tokens, err := s.store.ListByAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	listed := make([]*Token, 0, len(tokens))
	for _, token := range tokens {
		if token.State == domain.StateForSale && token.Owner == account {
			listed = append(listed, token)
		}
	}
	return listed, nil
}

// ListForSale returns every token currently listed, any seller.
func (s *Service) ListForSale(ctx context.Context) ([]*Token, error) {
	return s.store.ListForSale(ctx)
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

func (s *Service) emit(ctx context.Context, account domain.AccountID, action string, id domain.TokenID, detail string) {
	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{
			Account:  account.String(),
			Action:   action,
			Registry: "garment",
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
