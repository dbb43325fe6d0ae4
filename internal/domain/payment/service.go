package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/safepay/wallet-api/internal/domain/instrument"
	"github.com/safepay/wallet-api/internal/pkg/apperror"
	"github.com/safepay/wallet-api/internal/pkg/errorhandler"
	"github.com/safepay/wallet-api/internal/pkg/logger"
	"github.com/safepay/wallet-api/internal/pkg/metrics"
	"github.com/safepay/wallet-api/internal/pkg/reqctx"
)

// Operation names used in logs and metrics.
const (
	OperationGetPaymentMethods = "get_payment_methods"
	OperationCheckCharge       = "check_charge"
)

// Stage is a step of one request's lifecycle.
type Stage string

const (
	StageReceived   Stage = "received"
	StageValidating Stage = "validating"
	StageLookingUp  Stage = "looking_up"
	StageEvaluating Stage = "evaluating"
	StageAssembling Stage = "assembling"
	StageSucceeded  Stage = "succeeded"
	StageFailed     Stage = "failed"
)

const tracerName = "github.com/safepay/wallet-api/internal/domain/payment"

// Service answers directory lookups and charge checks. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	provider     instrument.Provider
	providerName string
	evaluator    Evaluator
	timeout      time.Duration
	metrics      *metrics.Metrics
	ids          reqctx.IDGenerator
	clock        reqctx.Clock
	tracer       trace.Tracer
}

type Option func(*Service)

// WithTimeout bounds each provider lookup. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithProviderName labels lookup metrics and spans.
func WithProviderName(name string) Option {
	return func(s *Service) { s.providerName = name }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithIDGenerator sets the generator used when ctx carries no request context.
func WithIDGenerator(gen reqctx.IDGenerator) Option {
	return func(s *Service) { s.ids = gen }
}

func WithClock(clock reqctx.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func NewService(provider instrument.Provider, opts ...Option) *Service {
	s := &Service{
		provider:     provider,
		providerName: "custom",
		ids:          reqctx.UUIDGenerator{},
		clock:        reqctx.SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// GetPaymentMethods returns the user's instruments in provider order. Failures are always
// *apperror.Error carrying the request id and timestamp.
func (s *Service) GetPaymentMethods(ctx context.Context, req GetPaymentMethodsRequest) (_ []PaymentMethodResponse, err error) {
	const op = OperationGetPaymentMethods
	ctx, rc := s.begin(ctx)
	s.stage(ctx, op, StageReceived)
	defer func() { err = s.finish(ctx, rc, op, err) }()

	s.stage(ctx, op, StageValidating)
	if appErr := ValidateGetPaymentMethods(req); appErr != nil {
		return nil, appErr
	}

	s.stage(ctx, op, StageLookingUp)
	records, err := s.lookup(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	s.stage(ctx, op, StageAssembling)
	return NewPaymentMethodResponses(records), nil
}

// CheckCharge evaluates a proposed charge against one of the user's instruments.
func (s *Service) CheckCharge(ctx context.Context, req CheckChargeRequest) (_ *ChargeCheckResponse, err error) {
	const op = OperationCheckCharge
	ctx, rc := s.begin(ctx)
	s.stage(ctx, op, StageReceived)
	defer func() { err = s.finish(ctx, rc, op, err) }()

	req = req.normalized()

	s.stage(ctx, op, StageValidating)
	if appErr := ValidateCheckCharge(req); appErr != nil {
		return nil, appErr
	}

	s.stage(ctx, op, StageLookingUp)
	records, err := s.lookup(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	s.stage(ctx, op, StageEvaluating)
	rec, ok := instrument.Find(records, req.InstrumentID)
	if !ok {
		return nil, apperror.Newf(apperror.CodeInstrumentNotFound,
			"instrument %s not found for user %s", req.InstrumentID, req.UserID).
			WithDetail(DetailUserID, req.UserID).
			WithDetail(DetailInstrumentID, req.InstrumentID)
	}
	result := s.evaluator.Evaluate(rec, req.Amount)

	s.stage(ctx, op, StageAssembling)
	return NewChargeCheckResponse(result), nil
}

// begin reuses the request context set by the transport or starts a new one.
func (s *Service) begin(ctx context.Context) (context.Context, reqctx.RequestContext) {
	ctx, rc := reqctx.Ensure(ctx, s.ids, s.clock)
	return logger.WithRequestID(ctx, rc.CorrelationID), rc
}

func (s *Service) finish(ctx context.Context, rc reqctx.RequestContext, op string, err error) error {
	if err == nil {
		s.metrics.RecordRequest(op, metrics.OutcomeSucceeded)
		s.stage(ctx, op, StageSucceeded)
		return nil
	}

	appErr := apperror.Classify(err)
	if appErr.RequestID() == "" {
		appErr = appErr.WithRequest(rc)
	}
	outcome := metrics.OutcomeFailed
	if errorhandler.CallerCancelled(ctx) {
		outcome = metrics.OutcomeCancelled
	}
	s.metrics.RecordRequest(op, outcome)
	logger.FromContext(ctx).Debug().
		Str("operation", op).
		Str("stage", string(StageFailed)).
		Str("error_code", string(appErr.Code)).
		Msg("payment request stage")
	return appErr
}

func (s *Service) stage(ctx context.Context, op string, st Stage) {
	logger.FromContext(ctx).Debug().
		Str("operation", op).
		Str("stage", string(st)).
		Msg("payment request stage")
}

// lookup calls the provider once, without retries, and maps not-found to USER_NOT_FOUND.
func (s *Service) lookup(ctx context.Context, userID string) ([]instrument.Record, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ctx, span := s.tracer.Start(ctx, "instrument.Lookup", trace.WithAttributes(
		attribute.String("provider", s.providerName),
	))
	defer span.End()

	start := time.Now()
	records, err := s.provider.Lookup(ctx, userID)
	s.metrics.ObserveLookup(s.providerName, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, instrument.ErrUserNotFound) {
			return nil, userNotFound(userID, err)
		}
		return nil, fmt.Errorf("lookup user %s: %w", userID, err)
	}

	span.SetAttributes(attribute.Int("instruments", len(records)))
	if records == nil {
		records = []instrument.Record{}
	}
	return records, nil
}

func userNotFound(userID string, err error) *apperror.Error {
	var known []string
	var nf *instrument.NotFoundError
	if errors.As(err, &nf) {
		known = nf.KnownUserIDs
	}
	// Providers built from LookupFunc may hand back unsorted or unfiltered ids.
	ids := instrument.NewNotFoundError(userID, known).KnownUserIDs

	return apperror.Newf(apperror.CodeUserNotFound, "user %s not found", userID).
		WithDetail(DetailUserID, userID).
		WithDetail(DetailValidUserIDs, ids)
}
