package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/prtracker/internal/db"
	"github.com/2beens/prtracker/internal/errvalues"
	"github.com/2beens/prtracker/internal/lifts/records"
	"github.com/2beens/prtracker/internal/telemetry/tracing"
	"github.com/2beens/prtracker/pkg"
)

var (
	ErrProfileNotFound  = fmt.Errorf("profile: %w", errvalues.ErrNotFound)
	ErrUsernameTaken    = fmt.Errorf("username already taken: %w", errvalues.ErrConflict)
	ErrAlreadyOnboarded = fmt.Errorf("profile already onboarded: %w", errvalues.ErrConflict)
)

const selectProfile = `
	SELECT
		p.id, p.name, p.username, p.height_cm, p.weight_kg, p.birthday,
		p.bench_press_pr, p.squat_pr, p.deadlift_pr,
		p.onboarded, p.thiefofjoy, p.profile_pic,
		ARRAY(
			SELECT CASE WHEN f.user_a = p.id THEN f.user_b ELSE f.user_a END
			FROM friendship f
			WHERE f.user_a = p.id OR f.user_b = p.id
			ORDER BY f.created_at
		) AS friends
	FROM profile p`

type Repo struct {
	db db.Conn
}

func NewRepo(conn db.Conn) *Repo {
	return &Repo{
		db: conn,
	}
}

func (r *Repo) Get(ctx context.Context, id string) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.get")
	defer tracing.EndSpanWithErrCheck(span, &err)

	profile, err := scanProfile(r.db.QueryRow(ctx, selectProfile+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, errvalues.Store(err)
	}
	return profile, nil
}

// Upsert creates the profile if absent, otherwise merges the non-nil fields into it.
func (r *Repo) Upsert(ctx context.Context, update Update) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.upsert")
	defer tracing.EndSpanWithErrCheck(span, &err)

	if _, err := r.db.Exec(ctx, `
		INSERT INTO profile (id, name, username, height_cm, weight_kg, birthday, thiefofjoy, profile_pic)
		VALUES ($1, COALESCE($2, ''), $3, $4, $5, $6, COALESCE($7, FALSE), COALESCE($8, ''))
		ON CONFLICT (id) DO UPDATE SET
			name        = COALESCE($2, profile.name),
			username    = COALESCE($3, profile.username),
			height_cm   = COALESCE($4, profile.height_cm),
			weight_kg   = COALESCE($5, profile.weight_kg),
			birthday    = COALESCE($6, profile.birthday),
			thiefofjoy  = COALESCE($7, profile.thiefofjoy),
			profile_pic = COALESCE($8, profile.profile_pic)
	`,
		update.ID,
		update.Name,
		update.Username,
		update.HeightCm,
		update.WeightKg,
		update.Birthday,
		update.ThiefOfJoy,
		update.ProfilePic,
	); err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, errvalues.Store(err)
	}

	return r.Get(ctx, update.ID)
}

// Onboard completes the first-run flow: it fills the profile, stores the three
// seed records and sets the current max cache, all in one transaction.
func (r *Repo) Onboard(ctx context.Context, onboarding Onboarding) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.onboard")
	defer tracing.EndSpanWithErrCheck(span, &err)

	err = db.RunInTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE profile SET
				name = $2, username = $3, height_cm = $4, weight_kg = $5, birthday = $6,
				bench_press_pr = $7, squat_pr = $8, deadlift_pr = $9,
				onboarded = TRUE
			WHERE id = $1 AND NOT onboarded
		`,
			onboarding.ID,
			onboarding.Name,
			onboarding.Username,
			onboarding.HeightCm,
			onboarding.WeightKg,
			onboarding.Birthday,
			onboarding.Bench,
			onboarding.Squat,
			onboarding.Deadlift,
		)
		if err != nil {
			if pkg.IsUniqueViolationError(err) {
				return ErrUsernameTaken
			}
			return errvalues.Store(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrAlreadyOnboarded
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO personal_record (user_id, exercise, value_kg, date)
			VALUES ($1, $2, $3, $8), ($1, $4, $5, $8), ($1, $6, $7, $8)
		`,
			onboarding.ID,
			string(records.Bench), onboarding.Bench,
			string(records.Squat), onboarding.Squat,
			string(records.Deadlift), onboarding.Deadlift,
			onboarding.Date,
		); err != nil {
			return errvalues.Store(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, onboarding.ID)
}

func (r *Repo) List(ctx context.Context, params ListParams) (_ []*Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.list")
	defer tracing.EndSpanWithErrCheck(span, &err)

	var (
		conditions []string
		args       []any
	)
	if params.IDs != nil {
		args = append(args, params.IDs)
		conditions = append(conditions, fmt.Sprintf("p.id = ANY($%d)", len(args)))
	}
	if params.Username != nil {
		span.SetAttributes(attribute.String("username", *params.Username))
		args = append(args, strings.ToLower(*params.Username))
		conditions = append(conditions, fmt.Sprintf("LOWER(p.username) = $%d", len(args)))
	}

	query := selectProfile
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY p.name, p.id`

	return r.queryProfiles(ctx, query, args...)
}

// Friends lists the profiles of the user's friends.
func (r *Repo) Friends(ctx context.Context, userID string) (_ []*Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.friends")
	defer tracing.EndSpanWithErrCheck(span, &err)

	return r.queryProfiles(ctx, selectProfile+`
		WHERE p.id IN (
			SELECT CASE WHEN user_a = $1 THEN user_b ELSE user_a END
			FROM friendship
			WHERE user_a = $1 OR user_b = $1
		)
		ORDER BY p.name, p.id`, userID)
}

func (r *Repo) GlobalAverages(ctx context.Context) (_ *Averages, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.global_averages")
	defer tracing.EndSpanWithErrCheck(span, &err)

	averages := &Averages{}
	if err := r.db.QueryRow(ctx, `
		SELECT AVG(bench_press_pr), AVG(squat_pr), AVG(deadlift_pr), COUNT(*)
		FROM profile
		WHERE onboarded
	`).Scan(&averages.Bench, &averages.Squat, &averages.Deadlift, &averages.Profiles); err != nil {
		return nil, errvalues.Store(err)
	}
	return averages, nil
}

func (r *Repo) queryProfiles(ctx context.Context, query string, args ...any) ([]*Profile, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errvalues.Store(err)
	}
	defer rows.Close()

	profiles := []*Profile{}
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, errvalues.Store(err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, errvalues.Store(err)
	}

	return profiles, nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	p := &Profile{}
	if err := row.Scan(
		&p.ID, &p.Name, &p.Username, &p.HeightCm, &p.WeightKg, &p.Birthday,
		&p.BenchPressPR, &p.SquatPR, &p.DeadliftPR,
		&p.Onboarded, &p.ThiefOfJoy, &p.ProfilePic,
		&p.Friends,
	); err != nil {
		return nil, err
	}
	if p.Friends == nil {
		p.Friends = []string{}
	}
	return p, nil
}
