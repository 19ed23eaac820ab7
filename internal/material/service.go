package material

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"hilo/internal/audit"
	"hilo/internal/platform/metrics"
	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
)

// Store is the persistence boundary for lots. Create assigns the lot id at
// commit time; ids are never reused.
type Store interface {
	Create(ctx context.Context, lot *Lot) error
	ListByProducer(ctx context.Context, producer domain.AccountID) ([]*Lot, error)
}

// RoleReader resolves the role bound to an account. Satisfied by the identity
// service; resolved once at construction, never re-looked-up ad hoc.
type RoleReader interface {
	RoleOf(ctx context.Context, account domain.AccountID) (domain.Role, error)
}

// AuditPublisher records committed mutations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service is the material registry: Producers and Manufacturers mint
// immutable raw material lots.
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

// Produce mints an immutable lot owned by the caller, timestamped at commit.
func (s *Service) Produce(ctx context.Context, caller domain.AccountID, kind Kind, quantity uint64, price decimal.Decimal) (*Lot, error) {
	role, err := s.roles.RoleOf(ctx, caller)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleProducer && role != domain.RoleManufacturer {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only producers and manufacturers may produce raw material")
	}
	if quantity == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "quantity must be greater than zero")
	}
	if !price.IsPositive() {
		return nil, dErrors.New(dErrors.CodeValidation, "price must be greater than zero")
	}

	lot := &Lot{
		Kind:      kind,
		Quantity:  quantity,
		Price:     price,
		Producer:  caller,
		CreatedAt: time.Now(),
	}
	if err := s.store.Create(ctx, lot); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint lot")
	}

	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{
			Account:  caller.String(),
			Action:   audit.ActionLotProduced,
			Registry: "material",
			TokenID:  lot.ID,
			Detail:   string(kind),
		})
	}
	if s.metrics != nil {
		s.metrics.LotsProduced.Inc()
	}
	return lot, nil
}

// LotsByProducer returns every lot created by the given account.
func (s *Service) LotsByProducer(ctx context.Context, producer domain.AccountID) ([]*Lot, error) {
	return s.store.ListByProducer(ctx, producer)
}
