package records

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/prtracker/internal/errvalues"
	"github.com/2beens/prtracker/internal/telemetry/metrics"
	"github.com/2beens/prtracker/internal/telemetry/tracing"
	"github.com/2beens/prtracker/internal/validation"
	"github.com/2beens/prtracker/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=records

type recordsRepo interface {
	Add(ctx context.Context, record PersonalRecord) (*PersonalRecord, error)
	List(ctx context.Context, params ListParams) ([]*PersonalRecord, error)
	Delete(ctx context.Context, userID string, id int) error
}

// Submission is a new PR as entered by the user. Date defaults to today.
type Submission struct {
	Exercise string   `json:"exercise" validate:"required"`
	ValueKg  *float64 `json:"valueKg" validate:"required"`
	Date     string   `json:"date"`
}

type SubmitResult struct {
	Record  *PersonalRecord     `json:"record"`
	Notices []validation.Notice `json:"notices"`
}

type Service struct {
	repo           recordsRepo
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewService(repo recordsRepo, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:           repo,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

// Submit clamps the submission into plausible bounds and stores it. Adjustments
// are reported back as notices; a value that is not positive after clamping is rejected.
func (s *Service) Submit(ctx context.Context, userID string, sub Submission) (_ *SubmitResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.records.submit")
	defer tracing.EndSpanWithErrCheck(span, &err)

	if err := validation.Struct(sub); err != nil {
		return nil, err
	}

	exercise, err := ParseExercise(sub.Exercise)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("exercise", string(exercise)))

	value, valueNotice := exercise.Bound().Clamp(*sub.ValueKg)
	if value <= 0 {
		return nil, errvalues.NewValidationError("valueKg", "must be greater than 0")
	}

	date := pkg.DateOnly(s.now())
	if sub.Date != "" {
		date, err = pkg.ParseDate(sub.Date)
		if err != nil {
			return nil, errvalues.NewValidationError("date", err.Error())
		}
	}
	date, dateNotice := validation.ClampDate("date", date, s.now())

	record, err := s.repo.Add(ctx, PersonalRecord{
		UserID:   userID,
		Exercise: exercise,
		ValueKg:  value,
		Date:     date,
	})
	if err != nil {
		return nil, fmt.Errorf("add record: %w", err)
	}

	notices := validation.Notices(valueNotice, dateNotice)
	if s.metricsManager != nil {
		s.metricsManager.CounterRecordsSubmitted.WithLabelValues(string(exercise)).Inc()
		for _, n := range notices {
			s.metricsManager.CounterClampNotices.WithLabelValues(n.Field).Inc()
		}
	}

	return &SubmitResult{
		Record:  record,
		Notices: notices,
	}, nil
}

func (s *Service) List(ctx context.Context, params ListParams) (_ []*PersonalRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.records.list")
	defer tracing.EndSpanWithErrCheck(span, &err)

	records, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if records == nil {
		records = []*PersonalRecord{}
	}
	return records, nil
}

func (s *Service) Delete(ctx context.Context, userID string, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.records.delete")
	defer tracing.EndSpanWithErrCheck(span, &err)

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	return nil
}
