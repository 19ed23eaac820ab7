package market

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hilo/internal/audit"
	"hilo/internal/garment"
	"hilo/internal/ledger"
	"hilo/internal/platform/metrics"
	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
	"hilo/pkg/platform/sentinel"
)

// GarmentStore is the slice of the garment store the settlement needs: a
// committed read and a locked check-and-apply.
type GarmentStore interface {
	FindByID(ctx context.Context, id domain.TokenID) (*garment.Token, error)
	Execute(ctx context.Context, id domain.TokenID, validate func(*garment.Token) error, mutate func(*garment.Token)) (*garment.Token, error)
}

// BalanceStore is the implicit balance ledger. Debit fails with
// ErrInsufficientFunds rather than going negative.
type BalanceStore interface {
	BalanceOf(ctx context.Context, account domain.AccountID) (decimal.Decimal, error)
	Credit(ctx context.Context, account domain.AccountID, amount decimal.Decimal) error
	Debit(ctx context.Context, account domain.AccountID, amount decimal.Decimal) error
}

// AuditPublisher records committed mutations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service settles garment sales: ownership, state and money move together or
// not at all.
type Service struct {
	garments GarmentStore
	balances BalanceStore
	tx       ledger.Tx
	tracer   trace.Tracer
	logger   *slog.Logger
	auditor  AuditPublisher
	metrics  *metrics.Metrics
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

func NewService(garments GarmentStore, balances BalanceStore, tx ledger.Tx, opts ...Option) *Service {
	s := &Service{
		garments: garments,
		balances: balances,
		tx:       tx,
		tracer:   otel.Tracer("hilo/market"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Buy settles a listed garment. Preconditions: state ForSale, payment equal
// to the listed price, buyer balance covering the payment. Effects: owner
// becomes the buyer, state becomes Bought, the buyer is debited and the
// seller credited. When two buyers race, exactly one sees ForSale; the loser
// fails closed with a state error and keeps their money.
func (s *Service) Buy(ctx context.Context, buyer domain.AccountID, id domain.TokenID, payment decimal.Decimal) (*garment.Token, error) {
	ctx, span := s.tracer.Start(ctx, "market.buy",
		trace.WithAttributes(
			attribute.String("buyer", buyer.String()),
			attribute.Int64("token_id", int64(id)),
		))
	defer span.End()

	var bought *garment.Token
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		token, err := s.garments.FindByID(ctx, id)
		if err != nil {
			return wrapTokenErr(err)
		}
		if token.State != domain.StateForSale {
			return dErrors.New(dErrors.CodeInvalidState, "token is not for sale")
		}
		if !payment.Equal(token.Price) {
			return dErrors.New(dErrors.CodePayment, "payment does not match the listed price")
		}
		seller := token.Owner

		// Debit before the ownership flip so an uncovered payment leaves
		// every record untouched.
		if err := s.balances.Debit(ctx, buyer, payment); err != nil {
			if errors.Is(err, ErrInsufficientFunds) {
				return dErrors.New(dErrors.CodePayment, "buyer balance does not cover the payment")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to debit buyer")
		}

		bought, err = s.garments.Execute(ctx, id,
			func(t *garment.Token) error {
				return t.CanTransition(domain.StateBought)
			},
			func(t *garment.Token) {
				t.State = domain.StateBought
				t.Owner = buyer
			},
		)
		if err != nil {
			return wrapTokenErr(err)
		}

		if err := s.balances.Credit(ctx, seller, payment); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit seller")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.countSettlement("failed")
		return nil, err
	}

	s.emit(ctx, buyer, audit.ActionSettlement, id, payment.String())
	s.countSettlement("settled")
	return bought, nil
}

// Deposit funds an account's balance.
func (s *Service) Deposit(ctx context.Context, account domain.AccountID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return dErrors.New(dErrors.CodeValidation, "deposit amount must be greater than zero")
	}
	if err := s.balances.Credit(ctx, account, amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit deposit")
	}
	s.emit(ctx, account, audit.ActionBalanceDeposit, 0, amount.String())
	return nil
}

// BalanceOf returns the committed balance, zero for unknown accounts.
func (s *Service) BalanceOf(ctx context.Context, account domain.AccountID) (decimal.Decimal, error) {
	return s.balances.BalanceOf(ctx, account)
}

func (s *Service) countSettlement(outcome string) {
	if s.metrics != nil {
		s.metrics.SettlementsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) emit(ctx context.Context, account domain.AccountID, action string, id domain.TokenID, detail string) {
	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{
			Account:  account.String(),
			Action:   action,
			Registry: "market",
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
