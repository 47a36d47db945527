package profiles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/prtracker/internal/errvalues"
	"github.com/2beens/prtracker/internal/telemetry/metrics"
	"github.com/2beens/prtracker/internal/telemetry/tracing"
	"github.com/2beens/prtracker/internal/validation"
	"github.com/2beens/prtracker/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=profiles

type profilesRepo interface {
	Get(ctx context.Context, id string) (*Profile, error)
	Upsert(ctx context.Context, update Update) (*Profile, error)
	Onboard(ctx context.Context, onboarding Onboarding) (*Profile, error)
	List(ctx context.Context, params ListParams) ([]*Profile, error)
}

type OnboardingRequest struct {
	Name     string   `json:"name" validate:"required,max=100"`
	Username string   `json:"username" validate:"required,min=3,max=30,username"`
	HeightCm *float64 `json:"heightCm" validate:"required"`
	WeightKg *float64 `json:"weightKg" validate:"required"`
	Birthday string   `json:"birthday"`
	Bench    *float64 `json:"bench" validate:"required"`
	Squat    *float64 `json:"squat" validate:"required"`
	Deadlift *float64 `json:"deadlift" validate:"required"`
}

type UpdateRequest struct {
	Name       *string  `json:"name" validate:"omitnil,max=100"`
	Username   *string  `json:"username" validate:"omitnil,min=3,max=30,username"`
	HeightCm   *float64 `json:"heightCm"`
	WeightKg   *float64 `json:"weightKg"`
	Birthday   *string  `json:"birthday"`
	ThiefOfJoy *bool    `json:"thiefofjoy"`
	ProfilePic *string  `json:"profilePic" validate:"omitnil,max=2048"`
}

// Result is a stored profile plus the adjustments made to the input.
type Result struct {
	Profile *Profile            `json:"profile"`
	Notices []validation.Notice `json:"notices"`
}

type Service struct {
	repo           profilesRepo
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewService(repo profilesRepo, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:           repo,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

func (s *Service) Get(ctx context.Context, userID string) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profiles.get")
	defer tracing.EndSpanWithErrCheck(span, &err)

	profile, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func (s *Service) Search(ctx context.Context, username string) (_ []*Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profiles.search")
	defer tracing.EndSpanWithErrCheck(span, &err)

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errvalues.NewValidationError("username", "required")
	}

	profiles, err := s.repo.List(ctx, ListParams{Username: &username})
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// Onboard clamps the baseline values and stores them together with the seed records.
func (s *Service) Onboard(ctx context.Context, userID string, req OnboardingRequest) (_ *Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profiles.onboard")
	defer tracing.EndSpanWithErrCheck(span, &err)

	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	now := s.now()
	height, heightNotice := validation.HeightBound.Clamp(*req.HeightCm)
	weight, weightNotice := validation.WeightBound.Clamp(*req.WeightKg)
	bench, benchNotice := validation.BenchPressBound.Clamp(*req.Bench)
	squat, squatNotice := validation.SquatBound.Clamp(*req.Squat)
	deadlift, deadliftNotice := validation.DeadliftBound.Clamp(*req.Deadlift)

	for _, lift := range []struct {
		field string
		value float64
	}{{"bench", bench}, {"squat", squat}, {"deadlift", deadlift}} {
		if lift.value <= 0 {
			return nil, errvalues.NewValidationError(lift.field, "must be greater than 0")
		}
	}

	birthday, birthdayNotice, err := parseBirthday(req.Birthday, now)
	if err != nil {
		return nil, err
	}

	profile, err := s.repo.Onboard(ctx, Onboarding{
		ID:       userID,
		Name:     strings.TrimSpace(req.Name),
		Username: req.Username,
		HeightCm: height,
		WeightKg: weight,
		Birthday: birthday,
		Bench:    bench,
		Squat:    squat,
		Deadlift: deadlift,
		Date:     pkg.DateOnly(now),
	})
	if err != nil {
		return nil, fmt.Errorf("onboard: %w", err)
	}

	notices := validation.Notices(heightNotice, weightNotice, birthdayNotice, benchNotice, squatNotice, deadliftNotice)
	s.countNotices(notices)

	return &Result{Profile: profile, Notices: notices}, nil
}

// Update merges the given fields into the profile, clamping body measurements.
func (s *Service) Update(ctx context.Context, userID string, req UpdateRequest) (_ *Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profiles.update")
	defer tracing.EndSpanWithErrCheck(span, &err)

	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	height, heightNotice := validation.HeightBound.ClampPtr(req.HeightCm)
	weight, weightNotice := validation.WeightBound.ClampPtr(req.WeightKg)

	update := Update{
		ID:         userID,
		Name:       req.Name,
		Username:   req.Username,
		HeightCm:   height,
		WeightKg:   weight,
		ThiefOfJoy: req.ThiefOfJoy,
		ProfilePic: req.ProfilePic,
	}

	var birthdayNotice *validation.Notice
	if req.Birthday != nil {
		update.Birthday, birthdayNotice, err = parseBirthday(*req.Birthday, s.now())
		if err != nil {
			return nil, err
		}
	}

	profile, err := s.repo.Upsert(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	notices := validation.Notices(heightNotice, weightNotice, birthdayNotice)
	s.countNotices(notices)

	return &Result{Profile: profile, Notices: notices}, nil
}

func (s *Service) countNotices(notices []validation.Notice) {
	if s.metricsManager == nil {
		return
	}
	for _, n := range notices {
		s.metricsManager.CounterClampNotices.WithLabelValues(n.Field).Inc()
	}
}

func parseBirthday(value string, now time.Time) (*time.Time, *validation.Notice, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil, nil
	}
	birthday, err := pkg.ParseDate(value)
	if err != nil {
		return nil, nil, errvalues.NewValidationError("birthday", err.Error())
	}
	birthday, notice := validation.ClampDate("birthday", birthday, now)
	return &birthday, notice, nil
}
