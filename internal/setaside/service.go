package setaside

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/setaside/internal/allocation"
	"github.com/iwvelando/setaside/internal/installment"
	"github.com/iwvelando/setaside/pkg/constants"
	"github.com/iwvelando/setaside/pkg/datetime"
	"github.com/iwvelando/setaside/pkg/mathutil"
	"github.com/iwvelando/setaside/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Submission is everything needed to record a set-aside for one loan.
type Submission struct {
	LoanID         int64                   `json:"loanId"`
	CoreCustomerID int64                   `json:"coreCustomerId"`
	ApprovalDate   string                  `json:"approvalDate,omitempty"`
	Form           validation.SetAsideForm `json:"form"`
	Accrual        Accrual                 `json:"accrual"`
}

// Result is what Submit hands back. Outcome is nil when the outcome could not be saved.
type Result struct {
	Request Request  `json:"request"`
	Outcome *Outcome `json:"outcome,omitempty"`
}

// Service coordinates validation, allocation, persistence, caching and
// notification of set-aside requests.
type Service struct {
	logger    *zap.Logger
	store     Store
	cache     Cache
	publisher Publisher
	now       func() time.Time
	newID     func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithCache sets the outcome cache.
func WithCache(c Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithPublisher sets the outcome publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the request ID source, for tests.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewService creates a service backed by store.
func NewService(logger *zap.Logger, store Store, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		logger:    logger,
		store:     store,
		cache:     nopCache{},
		publisher: nopPublisher{},
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allocate runs the waterfall for a raw set-aside amount against an accrual.
func (s *Service) Allocate(total string, accrual Accrual) allocation.Output {
	return allocation.Allocate(accrual.Input(allocation.NormalizeTotal(total)))
}

// InstallmentOptions returns the installment dates offered for a loan.
func (s *Service) InstallmentOptions(nextDueDate, maturityDate, today time.Time, previous string) installment.Series {
	return installment.Generate(nextDueDate, maturityDate, today, previous)
}

// normalizeApprovalDate stores approval dates as YYYY-MM-DD. An empty date
// stays empty.
func normalizeApprovalDate(date string) (string, error) {
	if strings.TrimSpace(date) == "" {
		return "", nil
	}
	return datetime.ToISODate(date)
}

// Submit validates and records a set-aside request, then derives, saves,
// caches and publishes its outcome. A failure to save the request aborts;
// later failures are logged and the request is still returned.
func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	form := sub.Form.Normalize()
	errs := validation.ValidateSetAsideForm(form)
	approvalDate, err := normalizeApprovalDate(sub.ApprovalDate)
	if err != nil {
		errs = append(errs, validation.FieldError{Field: validation.FieldApprovalDate, Message: validation.MsgApprovalDateFormat})
	}
	if len(errs) > 0 {
		return Result{}, errs
	}

	// Both amounts passed validation, so they parse.
	amount, _ := mathutil.ParseCurrency(form.SetAsideAmount)
	paymentAfter, _ := mathutil.ParseCurrency(form.PaymentAfterInstallment)

	now := s.now().UTC()
	req := Request{
		ID:                      s.newID(),
		LoanID:                  sub.LoanID,
		CoreCustomerID:          sub.CoreCustomerID,
		SetAsideType:            form.SetAsideType,
		DisasterCode:            form.DisasterCode,
		ApprovalDate:            approvalDate,
		InstallmentDate:         form.InstallmentDate,
		SetAsideAmount:          amount,
		PaymentAfterInstallment: paymentAfter,
		CreatedAt:               now,
	}

	if err := s.store.SaveRequest(ctx, req); err != nil {
		s.logger.Error("failed to save set-aside request",
			zap.String("op", "setaside.Submit"),
			zap.Int64("loanId", req.LoanID),
			zap.Error(err),
		)
		return Result{}, fmt.Errorf("save set-aside request: %w", err)
	}

	result := Result{Request: req}

	out := Outcome{
		RequestID:          req.ID,
		LoanID:             req.LoanID,
		Accrual:            sub.Accrual,
		Allocation:         allocation.Allocate(sub.Accrual.Input(req.SetAsideAmount)),
		ConfirmationNumber: confirmationNumber(req.ID),
		CreatedAt:          now,
	}

	s.logger.Debug("set-aside allocated",
		zap.String("op", "setaside.Submit"),
		zap.String("requestId", req.ID),
		zap.String("total", req.SetAsideAmount.String()),
		zap.String("nonCapitalizedInterest", out.Allocation.NonCapitalizedInterestAmount.String()),
		zap.String("deferredNonCapitalizedInterest", out.Allocation.DeferredNonCapitalizedInterestAmount.String()),
		zap.String("deferredInterest", out.Allocation.DeferredInterestAmount.String()),
		zap.String("interest", out.Allocation.InterestAmount.String()),
		zap.String("principal", out.Allocation.PrincipalAmount.String()),
	)

	if err := s.store.SaveOutcome(ctx, out); err != nil {
		s.logger.Error("failed to save set-aside outcome",
			zap.String("op", "setaside.Submit"),
			zap.String("requestId", req.ID),
			zap.Error(err),
		)
		return result, nil
	}
	result.Outcome = &out

	if err := s.cache.Set(ctx, out); err != nil {
		s.logger.Warn("failed to cache set-aside outcome",
			zap.String("op", "setaside.Submit"),
			zap.String("requestId", req.ID),
			zap.Error(err),
		)
	}

	if err := s.publisher.PublishOutcome(ctx, out); err != nil {
		s.logger.Warn("failed to publish set-aside outcome",
			zap.String("op", "setaside.Submit"),
			zap.String("requestId", req.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("set-aside request recorded",
		zap.String("op", "setaside.Submit"),
		zap.String("requestId", req.ID),
		zap.Int64("loanId", req.LoanID),
		zap.String("confirmationNumber", out.ConfirmationNumber),
	)

	return result, nil
}

// Outcome returns the recorded outcome of a request, preferring the cache.
func (s *Service) Outcome(ctx context.Context, requestID string) (Outcome, error) {
	if out, ok := s.cache.Get(ctx, requestID); ok {
		return out, nil
	}

	out, err := s.store.GetOutcome(ctx, requestID)
	if err != nil {
		return Outcome{}, err
	}

	if err := s.cache.Set(ctx, out); err != nil {
		s.logger.Warn("failed to refill outcome cache",
			zap.String("op", "setaside.Outcome"),
			zap.String("requestId", requestID),
			zap.Error(err),
		)
	}
	return out, nil
}

// Request returns a saved request.
func (s *Service) Request(ctx context.Context, id string) (Request, error) {
	return s.store.GetRequest(ctx, id)
}

// List returns the requests recorded for a loan, oldest first.
func (s *Service) List(ctx context.Context, loanID int64) ([]Request, error) {
	return s.store.ListRequests(ctx, loanID)
}

// Delete removes a request with its outcome and evicts the cached outcome.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteRequest(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to evict outcome cache",
			zap.String("op", "setaside.Delete"),
			zap.String("requestId", id),
			zap.Error(err),
		)
	}
	s.logger.Info("set-aside request deleted",
		zap.String("op", "setaside.Delete"),
		zap.String("requestId", id),
	)
	return nil
}

// BatchResult is the per-loan result of SubmitBatch. Errors is set instead
// of Result when the submission failed validation.
type BatchResult struct {
	LoanID int64                  `json:"loanId"`
	Result *Result                `json:"result,omitempty"`
	Errors validation.FieldErrors `json:"errors,omitempty"`
}

// SubmitBatch submits several loans with at most limit in flight. Results
// keep the order of subs. Validation problems are reported per loan; any
// other failure stops the batch.
func (s *Service) SubmitBatch(ctx context.Context, subs []Submission, limit int) ([]BatchResult, error) {
	if limit <= 0 {
		limit = constants.DefaultBatchConcurrency
	}

	results := make([]BatchResult, len(subs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, sub := range subs {
		i, sub := i, sub
		g.Go(func() error {
			res, err := s.Submit(gctx, sub)
			var fieldErrs validation.FieldErrors
			switch {
			case errors.As(err, &fieldErrs):
				results[i] = BatchResult{LoanID: sub.LoanID, Errors: fieldErrs}
				return nil
			case err != nil:
				return fmt.Errorf("loan %d: %w", sub.LoanID, err)
			}
			results[i] = BatchResult{LoanID: sub.LoanID, Result: &res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("set-aside batch recorded",
		zap.String("op", "setaside.SubmitBatch"),
		zap.Int("loans", len(subs)),
		zap.Int("limit", limit),
	)
	return results, nil
}

func confirmationNumber(requestID string) string {
	compact := strings.ReplaceAll(requestID, "-", "")
	if len(compact) > 10 {
		compact = compact[:10]
	}
	return "SA" + strings.ToUpper(compact)
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (Outcome, bool) { return Outcome{}, false }
func (nopCache) Set(context.Context, Outcome) error          { return nil }
func (nopCache) Delete(context.Context, string) error        { return nil }

type nopPublisher struct{}

func (nopPublisher) PublishOutcome(context.Context, Outcome) error { return nil }
