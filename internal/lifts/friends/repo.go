package friends

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/2beens/prtracker/internal/db"
	"github.com/2beens/prtracker/internal/errvalues"
	"github.com/2beens/prtracker/internal/lifts/notifications"
	"github.com/2beens/prtracker/internal/telemetry/tracing"
	"github.com/2beens/prtracker/pkg"
)

var ErrFriendshipNotFound = fmt.Errorf("friendship: %w", errvalues.ErrNotFound)

// Repo stores friendships as single edges with user_a < user_b, so a pair can
// exist only once regardless of who added whom.
type Repo struct {
	db            db.Conn
	notifications *notifications.Repo
}

func NewRepo(conn db.Conn, notificationsRepo *notifications.Repo) *Repo {
	return &Repo{
		db:            conn,
		notifications: notificationsRepo,
	}
}

func edge(userID, otherID string) (string, string) {
	if userID < otherID {
		return userID, otherID
	}
	return otherID, userID
}

// Add creates the friendship and the notification for the added user in one transaction.
func (r *Repo) Add(ctx context.Context, userID, friendID string, notification notifications.Notification) (_ *notifications.Notification, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.friends.add")
	defer tracing.EndSpanWithErrCheck(span, &err)

	if userID == friendID {
		return nil, errvalues.ErrSelfReference
	}

	var created *notifications.Notification
	if err := db.RunInTx(ctx, r.db, func(tx pgx.Tx) error {
		userA, userB := edge(userID, friendID)
		if _, err := tx.Exec(ctx, `
			INSERT INTO friendship (user_a, user_b) VALUES ($1, $2)
		`, userA, userB); err != nil {
			switch {
			case pkg.IsUniqueViolationError(err):
				return errvalues.ErrAlreadyFriends
			case pkg.IsForeignKeyViolationError(err):
				return fmt.Errorf("profile %s: %w", friendID, errvalues.ErrNotFound)
			}
			return errvalues.Store(err)
		}

		var err error
		created, err = r.notifications.AddTx(ctx, tx, notification)
		return err
	}); err != nil {
		return nil, err
	}

	return created, nil
}

func (r *Repo) Remove(ctx context.Context, userID, friendID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.friends.remove")
	defer tracing.EndSpanWithErrCheck(span, &err)

	userA, userB := edge(userID, friendID)
	tag, err := r.db.Exec(ctx, `
		DELETE FROM friendship WHERE user_a = $1 AND user_b = $2
	`, userA, userB)
	if err != nil {
		return errvalues.Store(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFriendshipNotFound
	}
	return nil
}

func (r *Repo) Exists(ctx context.Context, userID, friendID string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.friends.exists")
	defer tracing.EndSpanWithErrCheck(span, &err)

	userA, userB := edge(userID, friendID)
	var exists bool
	if err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM friendship WHERE user_a = $1 AND user_b = $2)
	`, userA, userB).Scan(&exists); err != nil {
		return false, errvalues.Store(err)
	}
	return exists, nil
}
