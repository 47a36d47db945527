package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/2beens/prtracker/internal/lifts/profiles"
	"github.com/2beens/prtracker/internal/lifts/records"
	"github.com/2beens/prtracker/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=stats

const (
	globalAveragesCacheKey = "averages::global"
	cacheSize              = 1024 * 1024
)

type profilesRepo interface {
	Get(ctx context.Context, id string) (*profiles.Profile, error)
	Friends(ctx context.Context, userID string) ([]*profiles.Profile, error)
	GlobalAverages(ctx context.Context) (*profiles.Averages, error)
}

type recordsRepo interface {
	List(ctx context.Context, params records.ListParams) ([]*records.PersonalRecord, error)
}

// Lift summarizes one exercise of the home dashboard.
type Lift struct {
	Current         *float64 `json:"current"`
	Initial         *float64 `json:"initial"`
	PercentIncrease *float64 `json:"percentIncrease"`
	GlobalAverage   *float64 `json:"globalAverage,omitempty"`
	FriendAverage   *float64 `json:"friendAverage,omitempty"`
}

type Home struct {
	Profile        *profiles.Profile          `json:"profile"`
	Lifts          map[records.Exercise]*Lift `json:"lifts"`
	BMI            *float64                   `json:"bmi"`
	BMIClass       BMIClass                   `json:"bmiClass,omitempty"`
	Mode           Mode                       `json:"mode"`
	Leaderboard    []RankedParticipant        `json:"leaderboard"`
	GlobalAverages *profiles.Averages         `json:"globalAverages,omitempty"`
	// parts that could not be loaded, keyed by part name
	Errors map[string]string `json:"errors,omitempty"`
}

type Service struct {
	profiles profilesRepo
	records  recordsRepo

	cache    *freecache.Cache
	cacheTTL time.Duration
}

func NewService(profilesRepo profilesRepo, recordsRepo recordsRepo, globalAveragesTTL time.Duration) *Service {
	return &Service{
		profiles: profilesRepo,
		records:  recordsRepo,
		cache:    freecache.NewCache(cacheSize),
		cacheTTL: globalAveragesTTL,
	}
}

// Home loads the dashboard parts concurrently. Only a failure to load the
// user's own profile fails the whole dashboard; other failed parts are
// reported in Errors and left empty.
func (s *Service) Home(ctx context.Context, userID string, mode Mode) (_ *Home, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.stats.home")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("mode", string(mode)))

	var (
		self     *profiles.Profile
		recs     []*records.PersonalRecord
		friends  []*profiles.Profile
		averages *profiles.Averages

		mu       sync.Mutex
		partErrs = map[string]string{}
	)
	partFailed := func(part string, err error) {
		log.Errorf("stats home for %s, load %s: %s", userID, part, err)
		mu.Lock()
		defer mu.Unlock()
		partErrs[part] = fmt.Sprintf("failed to load %s", part)
	}

	// no shared context: one failed part must not cancel the others
	var g errgroup.Group
	g.Go(func() error {
		var err error
		self, err = s.profiles.Get(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		if recs, err = s.records.List(ctx, records.ListParams{UserID: userID, Order: records.OrderAsc}); err != nil {
			partFailed("records", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if friends, err = s.profiles.Friends(ctx, userID); err != nil {
			partFailed("friends", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if averages, err = s.GlobalAverages(ctx); err != nil {
			partFailed("globalAverages", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	home := &Home{
		Profile:     self,
		Lifts:       make(map[records.Exercise]*Lift, len(records.Exercises)),
		BMI:         BMI(self.HeightCm, self.WeightKg),
		Mode:        mode,
		Leaderboard: Rank(participants(self, friends), mode),
	}
	if home.BMI != nil {
		home.BMIClass = ClassifyBMI(*home.BMI)
	}
	if self.ThiefOfJoy {
		home.GlobalAverages = averages
	}
	if len(partErrs) > 0 {
		home.Errors = partErrs
	}

	initials := InitialValues(recs)
	for _, exercise := range records.Exercises {
		lift := &Lift{Current: self.Current(exercise)}
		if initial, ok := initials[exercise]; ok {
			lift.Initial = &initial
			if lift.Current != nil {
				lift.PercentIncrease = PercentIncrease(*lift.Current, lift.Initial)
			}
		}
		if self.ThiefOfJoy {
			lift.GlobalAverage = averages.For(exercise)
			lift.FriendAverage = friendAverage(friends, exercise)
		}
		home.Lifts[exercise] = lift
	}

	return home, nil
}

// Progress builds the chart data of one exercise. Comparison lines are added
// when the user opted into comparisons.
func (s *Service) Progress(ctx context.Context, userID string, exercise records.Exercise) (_ *Progress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.stats.progress")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("exercise", string(exercise)))

	var (
		self    *profiles.Profile
		recs    []*records.PersonalRecord
		friends []*profiles.Profile
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if self, err = s.profiles.Get(gCtx, userID); err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if recs, err = s.records.List(gCtx, records.ListParams{
			UserID:   userID,
			Exercise: &exercise,
			Order:    records.OrderAsc,
		}); err != nil {
			return fmt.Errorf("list records: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if friends, err = s.profiles.Friends(gCtx, userID); err != nil {
			return fmt.Errorf("list friends: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	in := ProgressInput{
		History:        History(recs),
		Current:        self.Current(exercise),
		ShowComparison: self.ThiefOfJoy,
	}
	if self.ThiefOfJoy {
		averages, err := s.GlobalAverages(ctx)
		if err != nil {
			return nil, fmt.Errorf("global averages: %w", err)
		}
		in.GlobalAverage = averages.For(exercise)
		in.FriendAverage = friendAverage(friends, exercise)
	}

	progress := BuildProgress(in)
	return &progress, nil
}

// Leaderboard ranks the user together with their friends.
func (s *Service) Leaderboard(ctx context.Context, userID string, mode Mode) (_ []RankedParticipant, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.stats.leaderboard")
	defer tracing.EndSpanWithErrCheck(span, &err)

	self, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	friends, err := s.profiles.Friends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}

	return Rank(participants(self, friends), mode), nil
}

// GlobalAverages returns the averages over all onboarded profiles, cached for the configured TTL.
func (s *Service) GlobalAverages(ctx context.Context) (_ *profiles.Averages, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.stats.global_averages")
	defer tracing.EndSpanWithErrCheck(span, &err)

	averages := &profiles.Averages{}
	if cached, err := s.cache.Get([]byte(globalAveragesCacheKey)); err == nil {
		if err = json.Unmarshal(cached, averages); err == nil {
			log.Trace("global averages found in cache")
			return averages, nil
		}
		log.Errorf("failed to unmarshal global averages from cache: %s", err)
	}

	averages, err = s.profiles.GlobalAverages(ctx)
	if err != nil {
		return nil, err
	}

	if averagesBytes, err := json.Marshal(averages); err != nil {
		log.Errorf("failed to marshal global averages: %s", err)
	} else if err := s.cache.Set([]byte(globalAveragesCacheKey), averagesBytes, int(s.cacheTTL.Seconds())); err != nil {
		log.Errorf("failed to cache global averages: %s", err)
	}

	return averages, nil
}

func participants(self *profiles.Profile, friends []*profiles.Profile) []Participant {
	all := make([]Participant, 0, len(friends)+1)
	for _, p := range append([]*profiles.Profile{self}, friends...) {
		all = append(all, Participant{
			ID:          p.ID,
			DisplayName: p.DisplayName(),
			Bench:       p.BenchPressPR,
			Squat:       p.SquatPR,
			Deadlift:    p.DeadliftPR,
		})
	}
	return all
}

func friendAverage(friends []*profiles.Profile, exercise records.Exercise) *float64 {
	values := make([]*float64, 0, len(friends))
	for _, f := range friends {
		values = append(values, f.Current(exercise))
	}
	return Average(values)
}
