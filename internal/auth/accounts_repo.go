package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/2beens/prtracker/internal/db"
	"github.com/2beens/prtracker/internal/errvalues"
	"github.com/2beens/prtracker/internal/telemetry/tracing"
	"github.com/2beens/prtracker/pkg"
)

type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	Onboarded    bool      `json:"onboarded"`
}

type AccountsRepo struct {
	db db.Conn
}

func NewAccountsRepo(conn db.Conn) *AccountsRepo {
	return &AccountsRepo{
		db: conn,
	}
}

// Create inserts the account and its blank profile in one transaction.
func (r *AccountsRepo) Create(ctx context.Context, account Account) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.accounts.create")
	defer tracing.EndSpanWithErrCheck(span, &err)

	return db.RunInTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO account (id, email, password_hash, created_at)
			VALUES ($1, $2, $3, $4)
		`, account.ID, account.Email, account.PasswordHash, account.CreatedAt); err != nil {
			if pkg.IsUniqueViolationError(err) {
				return ErrEmailTaken
			}
			return errvalues.Store(err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO profile (id, onboarded) VALUES ($1, FALSE)
		`, account.ID); err != nil {
			return errvalues.Store(err)
		}
		return nil
	})
}

func (r *AccountsRepo) GetByEmail(ctx context.Context, email string) (_ *Account, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.accounts.get_by_email")
	defer tracing.EndSpanWithErrCheck(span, &err)

	return r.get(ctx, "a.email = $1", email)
}

func (r *AccountsRepo) GetByID(ctx context.Context, id string) (_ *Account, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.accounts.get_by_id")
	defer tracing.EndSpanWithErrCheck(span, &err)

	return r.get(ctx, "a.id = $1", id)
}

func (r *AccountsRepo) get(ctx context.Context, where string, arg string) (*Account, error) {
	account := &Account{}
	err := r.db.QueryRow(ctx, `
		SELECT a.id, a.email, a.password_hash, a.created_at, COALESCE(p.onboarded, FALSE)
		FROM account a
		LEFT JOIN profile p ON p.id = a.id
		WHERE `+where, arg,
	).Scan(&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt, &account.Onboarded)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, errvalues.Store(err)
	}
	return account, nil
}
