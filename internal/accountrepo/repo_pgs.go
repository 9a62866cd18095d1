package accountrepo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/Elmar465/SpendSnap/internal/domain"
	"github.com/Elmar465/SpendSnap/pkg/dbpkg"
	"github.com/Elmar465/SpendSnap/pkg/errorspkg"
)

const accountColumns = `
	id, owner_id, name, currency, status, balance, interest_apr,
	compounding, day_count, last_interest_posted_at, notes,
	created_at, updated_at, version`

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewRepoPGS returns account RepoPGS with a connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.OwnerID,
		&a.Name,
		&a.Currency,
		&a.Status,
		&a.Balance,
		&a.InterestAPR,
		&a.Compounding,
		&a.DayCount,
		&a.LastInterestPostedAt,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.Version,
	)

	return a, err
}

const createQuery = `
INSERT INTO saving_accounts (
	owner_id, name, currency, status, balance, interest_apr,
	compounding, day_count, last_interest_posted_at, notes,
	created_at, updated_at, version
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1
) RETURNING` + accountColumns

// Create creates the account and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.OwnerID,
		arg.Name,
		arg.Currency,
		arg.Status,
		arg.Balance,
		arg.InterestAPR,
		arg.Compounding,
		arg.DayCount,
		arg.LastInterestPostedAt,
		arg.Notes,
		arg.CreatedAt,
		arg.UpdatedAt,
	)

	a, err := scanAccount(row)
	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "saving_accounts_owner_id_fkey":
				return a, domain.ErrOwnerNotFound
			case "uq_saving_accounts_owner_name":
				return a, domain.ErrAccountNameTaken
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const getOwnedQuery = `
SELECT` + accountColumns + `
FROM saving_accounts
WHERE id = $1 AND owner_id = $2`

// GetOwned returns the account with the given id if it belongs to ownerID.
// A cross-owner lookup is reported as domain.ErrAccountNotFound.
func (r *RepoPGS) GetOwned(ctx context.Context, id, ownerID int32) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, getOwnedQuery, id, ownerID))
	if err != nil {
		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const saveQuery = `
UPDATE saving_accounts
SET
	name = $1,
	currency = $2,
	status = $3,
	balance = $4,
	interest_apr = $5,
	compounding = $6,
	day_count = $7,
	last_interest_posted_at = $8,
	notes = $9,
	updated_at = $10,
	version = version + 1
WHERE id = $11 AND version = $12
RETURNING` + accountColumns

func saveTx(ctx context.Context, db dbpkg.SQLInterface, a domain.Account) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := db.QueryRowContext(ctx, saveQuery,
		a.Name,
		a.Currency,
		a.Status,
		a.Balance,
		a.InterestAPR,
		a.Compounding,
		a.DayCount,
		a.LastInterestPostedAt,
		a.Notes,
		a.UpdatedAt,
		a.ID,
		a.Version,
	)

	saved, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			// Either the row is gone or another commit bumped the version.
			return saved, domain.ErrStaleWrite
		}

		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "uq_saving_accounts_owner_name" {
				return saved, domain.ErrAccountNameTaken
			}
		}

		return saved, errorspkg.ErrInternal
	}

	return saved, nil
}

// Save persists the account using optimistic concurrency: the write commits
// only if the stored version still matches a.Version.
func (r *RepoPGS) Save(ctx context.Context, a domain.Account) (domain.Account, error) {
	return saveTx(ctx, r.db, a)
}

// SavePair persists two accounts within a single transaction: either both
// versioned writes commit or neither does. Statements are executed in
// ascending id order to keep concurrent pair updates deadlock free.
func (r *RepoPGS) SavePair(ctx context.Context, a, b domain.Account) (domain.Account, domain.Account, error) {
	l := zerolog.Ctx(ctx)

	if b.ID < a.ID {
		savedB, savedA, err := r.SavePair(ctx, b, a)
		return savedA, savedB, err
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Account{}, domain.Account{}, errorspkg.ErrInternal
	}

	defer func() { _ = tx.Rollback() }()

	savedA, err := saveTx(ctx, tx, a)
	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}

	savedB, err := saveTx(ctx, tx, b)
	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return domain.Account{}, domain.Account{}, errorspkg.ErrInternal
	}

	return savedA, savedB, nil
}

const existsNameQuery = `
SELECT EXISTS (
	SELECT 1 FROM saving_accounts
	WHERE owner_id = $1 AND lower(name) = lower($2)
)`

// ExistsName reports whether ownerID already has an account named name,
// comparing case-insensitively.
func (r *RepoPGS) ExistsName(ctx context.Context, ownerID int32, name string) (bool, error) {
	l := zerolog.Ctx(ctx)

	var exists bool

	err := r.db.QueryRowContext(ctx, existsNameQuery, ownerID, name).Scan(&exists)
	if err != nil {
		l.Error().Err(err).Send()
		return false, errorspkg.ErrInternal
	}

	return exists, nil
}

const existsNameExcludingQuery = `
SELECT EXISTS (
	SELECT 1 FROM saving_accounts
	WHERE owner_id = $1 AND lower(name) = lower($2) AND id <> $3
)`

// ExistsNameExcluding is ExistsName skipping the account with id excludeID.
func (r *RepoPGS) ExistsNameExcluding(ctx context.Context, ownerID int32, name string, excludeID int32) (bool, error) {
	l := zerolog.Ctx(ctx)

	var exists bool

	err := r.db.QueryRowContext(ctx, existsNameExcludingQuery, ownerID, name, excludeID).Scan(&exists)
	if err != nil {
		l.Error().Err(err).Send()
		return false, errorspkg.ErrInternal
	}

	return exists, nil
}

const listQuery = `
SELECT` + accountColumns + `
FROM saving_accounts
WHERE owner_id = $1
ORDER BY updated_at DESC`

const listByStatusQuery = `
SELECT` + accountColumns + `
FROM saving_accounts
WHERE owner_id = $1 AND status = $2
ORDER BY updated_at DESC`

// List returns the owner's accounts, optionally filtered by status,
// newest-updated first.
func (r *RepoPGS) List(ctx context.Context, ownerID int32, status *domain.AccountStatus) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var (
		rows *sql.Rows
		err  error
	)

	if status == nil {
		rows, err = r.db.QueryContext(ctx, listQuery, ownerID)
	} else {
		rows, err = r.db.QueryContext(ctx, listByStatusQuery, ownerID, *status)
	}

	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, a)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const deleteQuery = `
DELETE FROM saving_accounts
WHERE id = $1 AND version = $2`

// Delete removes the account if its version still matches the stored one.
func (r *RepoPGS) Delete(ctx context.Context, a domain.Account) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, deleteQuery, a.ID, a.Version)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	n, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if n == 0 {
		return domain.ErrStaleWrite
	}

	return nil
}
