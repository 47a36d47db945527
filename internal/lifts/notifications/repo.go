package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/prtracker/internal/db"
	"github.com/2beens/prtracker/internal/errvalues"
	"github.com/2beens/prtracker/internal/telemetry/tracing"
)

var ErrNotificationNotFound = fmt.Errorf("notification: %w", errvalues.ErrNotFound)

type Repo struct {
	db db.Conn
}

func NewRepo(conn db.Conn) *Repo {
	return &Repo{
		db: conn,
	}
}

func (r *Repo) Add(ctx context.Context, notification Notification) (_ *Notification, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.notifications.add")
	defer tracing.EndSpanWithErrCheck(span, &err)

	return insert(ctx, r.db, notification)
}

// AddTx inserts the notification as part of the caller's transaction.
func (r *Repo) AddTx(ctx context.Context, tx pgx.Tx, notification Notification) (_ *Notification, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.notifications.add_tx")
	defer tracing.EndSpanWithErrCheck(span, &err)

	return insert(ctx, tx, notification)
}

func insert(ctx context.Context, conn db.Conn, notification Notification) (*Notification, error) {
	if notification.Recipients == nil {
		notification.Recipients = []string{}
	}
	if notification.OpenedBy == nil {
		notification.OpenedBy = []string{}
	}

	if err := conn.QueryRow(ctx, `
		INSERT INTO notification (text, date, creator_id, recipients, opened_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		notification.Text,
		notification.Date,
		notification.CreatorID,
		notification.Recipients,
		notification.OpenedBy,
	).Scan(&notification.ID); err != nil {
		return nil, errvalues.Store(err)
	}
	return &notification, nil
}

// ListForRecipient returns the user's notifications, newest first.
func (r *Repo) ListForRecipient(ctx context.Context, userID string) (_ []*Notification, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.notifications.list_for_recipient")
	defer tracing.EndSpanWithErrCheck(span, &err)

	rows, err := r.db.Query(ctx, `
		SELECT id, text, date, creator_id, recipients, opened_by
		FROM notification
		WHERE $1 = ANY(recipients)
		ORDER BY date DESC, id DESC
	`, userID)
	if err != nil {
		return nil, errvalues.Store(err)
	}
	defer rows.Close()

	notifications := []*Notification{}
	for rows.Next() {
		n := &Notification{}
		if err := rows.Scan(&n.ID, &n.Text, &n.Date, &n.CreatorID, &n.Recipients, &n.OpenedBy); err != nil {
			return nil, errvalues.Store(err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errvalues.Store(err)
	}

	return notifications, nil
}

func (r *Repo) Update(ctx context.Context, id int, update Update) (_ *Notification, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.notifications.update")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.Int("id", id))

	n := &Notification{}
	if err := r.db.QueryRow(ctx, `
		UPDATE notification SET
			text      = COALESCE($2, text),
			opened_by = COALESCE($3, opened_by)
		WHERE id = $1
		RETURNING id, text, date, creator_id, recipients, opened_by
	`, id, update.Text, update.OpenedBy,
	).Scan(&n.ID, &n.Text, &n.Date, &n.CreatorID, &n.Recipients, &n.OpenedBy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, errvalues.Store(err)
	}
	return n, nil
}

// MarkRead adds the user to opened_by. Marking an already read notification is a no-op.
func (r *Repo) MarkRead(ctx context.Context, id int, userID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.notifications.mark_read")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `
		UPDATE notification
		SET opened_by = array_append(opened_by, $2)
		WHERE id = $1 AND $2 = ANY(recipients) AND NOT ($2 = ANY(opened_by))
	`, id, userID)
	if err != nil {
		return errvalues.Store(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var isRecipient bool
	if err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM notification WHERE id = $1 AND $2 = ANY(recipients))
	`, id, userID).Scan(&isRecipient); err != nil {
		return errvalues.Store(err)
	}
	if !isRecipient {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *Repo) UnreadCount(ctx context.Context, userID string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.notifications.unread_count")
	defer tracing.EndSpanWithErrCheck(span, &err)

	var count int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notification
		WHERE $1 = ANY(recipients) AND NOT ($1 = ANY(opened_by))
	`, userID).Scan(&count); err != nil {
		return 0, errvalues.Store(err)
	}
	return count, nil
}
