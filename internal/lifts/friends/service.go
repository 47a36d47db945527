package friends

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/prtracker/internal/errvalues"
	"github.com/2beens/prtracker/internal/lifts/notifications"
	"github.com/2beens/prtracker/internal/lifts/profiles"
	"github.com/2beens/prtracker/internal/telemetry/metrics"
	"github.com/2beens/prtracker/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=friends

type friendsRepo interface {
	Add(ctx context.Context, userID, friendID string, notification notifications.Notification) (*notifications.Notification, error)
	Remove(ctx context.Context, userID, friendID string) error
	Exists(ctx context.Context, userID, friendID string) (bool, error)
}

type profilesRepo interface {
	Get(ctx context.Context, id string) (*profiles.Profile, error)
	List(ctx context.Context, params profiles.ListParams) ([]*profiles.Profile, error)
	Friends(ctx context.Context, userID string) ([]*profiles.Profile, error)
}

type notifier interface {
	Publish(notification *notifications.Notification)
}

type AddRequest struct {
	Username string `json:"username" validate:"required"`
}

type Service struct {
	repo           friendsRepo
	profiles       profilesRepo
	notifier       notifier
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewService(
	repo friendsRepo,
	profilesRepo profilesRepo,
	notifier notifier,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		repo:           repo,
		profiles:       profilesRepo,
		notifier:       notifier,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

// AddFriend befriends the profile with the given username and notifies it.
// The friendship is mutual from the moment it is stored.
func (s *Service) AddFriend(ctx context.Context, userID, username string) (_ *profiles.Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.friends.add")
	defer tracing.EndSpanWithErrCheck(span, &err)

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errvalues.NewValidationError("username", "is required")
	}

	found, err := s.profiles.List(ctx, profiles.ListParams{Username: &username})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", username, err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("username %s: %w", username, profiles.ErrProfileNotFound)
	}
	friend := found[0]

	if friend.ID == userID {
		return nil, errvalues.ErrSelfReference
	}

	exists, err := s.repo.Exists(ctx, userID, friend.ID)
	if err != nil {
		return nil, fmt.Errorf("check friendship: %w", err)
	}
	if exists {
		return nil, errvalues.ErrAlreadyFriends
	}

	self, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get own profile: %w", err)
	}

	notification, err := s.repo.Add(ctx, userID, friend.ID, notifications.Notification{
		Text:       fmt.Sprintf("%s added you as a friend", displayName(self)),
		Date:       s.now().UTC(),
		CreatorID:  userID,
		Recipients: []string{friend.ID},
		OpenedBy:   []string{},
	})
	if err != nil {
		return nil, fmt.Errorf("add friend %s: %w", friend.ID, err)
	}

	s.metricsManager.CounterFriendships.WithLabelValues("added").Inc()
	s.notifier.Publish(notification)

	friend.Friends = append(friend.Friends, userID)
	return friend, nil
}

func (s *Service) RemoveFriend(ctx context.Context, userID, friendID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.friends.remove")
	defer tracing.EndSpanWithErrCheck(span, &err)

	if userID == friendID {
		return errvalues.ErrSelfReference
	}

	if err := s.repo.Remove(ctx, userID, friendID); err != nil {
		return fmt.Errorf("remove friend %s: %w", friendID, err)
	}

	s.metricsManager.CounterFriendships.WithLabelValues("removed").Inc()
	return nil
}

func (s *Service) ListFriends(ctx context.Context, userID string) (_ []*profiles.Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.friends.list")
	defer tracing.EndSpanWithErrCheck(span, &err)

	friends, err := s.profiles.Friends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friends, nil
}

func displayName(p *profiles.Profile) string {
	if name := p.DisplayName(); name != "" {
		return name
	}
	return "Someone"
}
