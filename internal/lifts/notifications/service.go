package notifications

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/prtracker/internal/telemetry/metrics"
	"github.com/2beens/prtracker/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=notifications

type notificationsRepo interface {
	Add(ctx context.Context, notification Notification) (*Notification, error)
	ListForRecipient(ctx context.Context, userID string) ([]*Notification, error)
	Update(ctx context.Context, id int, update Update) (*Notification, error)
	MarkRead(ctx context.Context, id int, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

type Service struct {
	repo           notificationsRepo
	hub            *Hub
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewService(repo notificationsRepo, hub *Hub, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:           repo,
		hub:            hub,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

// Notify stores a new notification and pushes it to the live streams of the recipients.
func (s *Service) Notify(ctx context.Context, creatorID string, recipients []string, text string) (_ *Notification, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.notifications.notify")
	defer tracing.EndSpanWithErrCheck(span, &err)

	n, err := s.repo.Add(ctx, Notification{
		Text:       text,
		Date:       s.now().UTC(),
		CreatorID:  creatorID,
		Recipients: recipients,
		OpenedBy:   []string{},
	})
	if err != nil {
		return nil, fmt.Errorf("add notification: %w", err)
	}

	s.Publish(n)
	return n, nil
}

// Publish pushes an already stored notification to live streams.
func (s *Service) Publish(notification *Notification) {
	s.hub.Publish(notification)
	s.metricsManager.CounterNotificationsSent.Inc()
}

func (s *Service) Subscribe(userID string) (<-chan *Notification, func()) {
	return s.hub.Subscribe(userID)
}

func (s *Service) List(ctx context.Context, userID string) (_ []View, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.notifications.list")
	defer tracing.EndSpanWithErrCheck(span, &err)

	notifications, err := s.repo.ListForRecipient(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	views := make([]View, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, View{Notification: n, Unread: n.UnreadFor(userID)})
	}
	return views, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.notifications.unread_count")
	defer tracing.EndSpanWithErrCheck(span, &err)

	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (s *Service) MarkRead(ctx context.Context, userID string, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.notifications.mark_read")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.Int("id", id))

	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	return nil
}

func (s *Service) Update(ctx context.Context, id int, update Update) (_ *Notification, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.notifications.update")
	defer tracing.EndSpanWithErrCheck(span, &err)

	n, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("update notification %d: %w", id, err)
	}
	return n, nil
}
