package records

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

var (
	ErrRecordNotFound = fmt.Errorf("personal record: %w", errvalues.ErrNotFound)
	ErrOwnerNotFound  = fmt.Errorf("record owner profile: %w", errvalues.ErrNotFound)
)

type Repo struct {
	db db.Conn
}

func NewRepo(conn db.Conn) *Repo {
	return &Repo{
		db: conn,
	}
}

// Add inserts the record and refreshes the owner's current max in the same transaction.
func (r *Repo) Add(ctx context.Context, record PersonalRecord) (_ *PersonalRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.records.add")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("exercise", string(record.Exercise)))

	err = db.RunInTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockOwner(ctx, tx, record.UserID); err != nil {
			return err
		}

		if err := tx.QueryRow(ctx, `
			INSERT INTO personal_record (user_id, exercise, value_kg, date)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, record.UserID, string(record.Exercise), record.ValueKg, record.Date,
		).Scan(&record.ID); err != nil {
			return errvalues.Store(err)
		}

		return recomputeCache(ctx, tx, record.UserID, record.Exercise)
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *Repo) List(ctx context.Context, params ListParams) (_ []*PersonalRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.records.list")
	defer tracing.EndSpanWithErrCheck(span, &err)

	direction := "DESC"
	if params.Order == OrderAsc {
		direction = "ASC"
	}

	args := []any{params.UserID}
	query := `
		SELECT id, user_id, exercise, value_kg, date
		FROM personal_record
		WHERE user_id = $1`
	if params.Exercise != nil {
		span.SetAttributes(attribute.String("exercise", string(*params.Exercise)))
		args = append(args, string(*params.Exercise))
		query += ` AND exercise = $2`
	}
	query += fmt.Sprintf(` ORDER BY date %s, id %s`, direction, direction)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errvalues.Store(err)
	}
	defer rows.Close()

	var records []*PersonalRecord
	for rows.Next() {
		var (
			record   PersonalRecord
			exercise string
		)
		if err := rows.Scan(&record.ID, &record.UserID, &exercise, &record.ValueKg, &record.Date); err != nil {
			return nil, errvalues.Store(err)
		}
		record.Exercise = Exercise(exercise)
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, errvalues.Store(err)
	}

	return records, nil
}

// Delete removes one of the user's records. The chronologically earliest record
// of an exercise is the baseline for progress and cannot be deleted.
func (r *Repo) Delete(ctx context.Context, userID string, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.records.delete")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.Int("id", id))

	return db.RunInTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockOwner(ctx, tx, userID); err != nil {
			return err
		}

		var exercise string
		if err := tx.QueryRow(ctx, `
			SELECT exercise FROM personal_record
			WHERE id = $1 AND user_id = $2
		`, id, userID).Scan(&exercise); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRecordNotFound
			}
			return errvalues.Store(err)
		}

		var earliestID int
		if err := tx.QueryRow(ctx, `
			SELECT id FROM personal_record
			WHERE user_id = $1 AND exercise = $2
			ORDER BY date ASC, id ASC
			LIMIT 1
		`, userID, exercise).Scan(&earliestID); err != nil {
			return errvalues.Store(err)
		}
		if earliestID == id {
			return errvalues.ErrEarliestRecord
		}

		if _, err := tx.Exec(ctx, `DELETE FROM personal_record WHERE id = $1`, id); err != nil {
			return errvalues.Store(err)
		}

		return recomputeCache(ctx, tx, userID, Exercise(exercise))
	})
}

// recomputeCache sets the profile's current max for the exercise to the value of
// the latest dated record, ties going to the highest id.
func recomputeCache(ctx context.Context, tx pgx.Tx, userID string, exercise Exercise) error {
	if _, err := tx.Exec(ctx, fmt.Sprintf(`
		UPDATE profile SET %s = (
			SELECT value_kg FROM personal_record
			WHERE user_id = $1 AND exercise = $2
			ORDER BY date DESC, id DESC
			LIMIT 1
		)
		WHERE id = $1
	`, exercise.CacheColumn()), userID, string(exercise)); err != nil {
		return errvalues.Store(fmt.Errorf("recompute %s: %w", exercise.CacheColumn(), err))
	}
	return nil
}

// lockOwner serializes record writes of one user.
func lockOwner(ctx context.Context, tx pgx.Tx, userID string) error {
	var id string
	if err := tx.QueryRow(ctx, `SELECT id FROM profile WHERE id = $1 FOR UPDATE`, userID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOwnerNotFound
		}
		return errvalues.Store(err)
	}
	return nil
}
