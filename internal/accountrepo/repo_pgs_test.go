package accountrepo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Elmar465/SpendSnap/internal/domain"
	"github.com/Elmar465/SpendSnap/pkg/currencypkg"
	"github.com/Elmar465/SpendSnap/pkg/errorspkg"
	"github.com/Elmar465/SpendSnap/pkg/moneypkg"
)

var testTime = time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

func newPGSMock(t *testing.T) (*RepoPGS, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	return NewRepoPGS(db), mock
}

func accountRows(a domain.Account) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "name", "currency", "status", "balance",
		"interest_apr", "compounding", "day_count", "last_interest_posted_at",
		"notes", "created_at", "updated_at", "version",
	})

	return rows.AddRow(
		a.ID, a.OwnerID, a.Name, a.Currency, string(a.Status),
		a.Balance.String(), a.InterestAPR.String(),
		string(a.Compounding), string(a.DayCount), a.LastInterestPostedAt,
		a.Notes, a.CreatedAt, a.UpdatedAt, a.Version,
	)
}

func testAccount() domain.Account {
	return domain.Account{
		ID:          1,
		OwnerID:     10,
		Name:        "Main",
		Currency:    currencypkg.USD,
		Status:      domain.StatusActive,
		Balance:     decimal.RequireFromString("100.00"),
		InterestAPR: decimal.RequireFromString("12"),
		Compounding: moneypkg.CompoundingMonthly,
		DayCount:    moneypkg.DayCountAct365F,
		CreatedAt:   testTime,
		UpdatedAt:   testTime,
		Version:     1,
	}
}

func TestRepoPGSCreate(t *testing.T) {
	ctx := context.Background()

	arg := domain.CreateAccountParams{
		OwnerID:     10,
		Name:        "Main",
		Currency:    currencypkg.USD,
		Status:      domain.StatusActive,
		Balance:     decimal.RequireFromString("100.00"),
		InterestAPR: decimal.RequireFromString("12"),
		Compounding: moneypkg.CompoundingMonthly,
		DayCount:    moneypkg.DayCountAct365F,
		CreatedAt:   testTime,
		UpdatedAt:   testTime,
	}

	t.Run("OK", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		mock.ExpectQuery(regexp.QuoteMeta(createQuery)).
			WillReturnRows(accountRows(testAccount()))

		a, err := repo.Create(ctx, arg)
		require.NoError(t, err)
		require.Equal(t, int32(1), a.ID)
		require.Equal(t, "100.00", a.Balance.StringFixed(2))
		require.Equal(t, int32(1), a.Version)
	})

	t.Run("UnknownOwner", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		mock.ExpectQuery(regexp.QuoteMeta(createQuery)).
			WillReturnError(&pq.Error{Constraint: "saving_accounts_owner_id_fkey"})

		_, err := repo.Create(ctx, arg)
		require.ErrorIs(t, err, domain.ErrOwnerNotFound)
	})

	t.Run("DuplicateName", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		mock.ExpectQuery(regexp.QuoteMeta(createQuery)).
			WillReturnError(&pq.Error{Constraint: "uq_saving_accounts_owner_name"})

		_, err := repo.Create(ctx, arg)
		require.ErrorIs(t, err, domain.ErrAccountNameTaken)
	})
}

func TestRepoPGSGetOwned(t *testing.T) {
	ctx := context.Background()

	t.Run("OK", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		mock.ExpectQuery(regexp.QuoteMeta(getOwnedQuery)).
			WithArgs(int32(1), int32(10)).
			WillReturnRows(accountRows(testAccount()))

		a, err := repo.GetOwned(ctx, 1, 10)
		require.NoError(t, err)
		require.Equal(t, "Main", a.Name)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		mock.ExpectQuery(regexp.QuoteMeta(getOwnedQuery)).
			WithArgs(int32(1), int32(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetOwned(ctx, 1, 99)
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestRepoPGSSave(t *testing.T) {
	ctx := context.Background()

	t.Run("OK", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		a := testAccount()
		saved := a
		saved.Version = 2

		mock.ExpectQuery(regexp.QuoteMeta(saveQuery)).
			WillReturnRows(accountRows(saved))

		got, err := repo.Save(ctx, a)
		require.NoError(t, err)
		require.Equal(t, int32(2), got.Version)
	})

	t.Run("StaleWrite", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		mock.ExpectQuery(regexp.QuoteMeta(saveQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.Save(ctx, testAccount())
		require.ErrorIs(t, err, domain.ErrStaleWrite)
	})

	t.Run("DuplicateName", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		mock.ExpectQuery(regexp.QuoteMeta(saveQuery)).
			WillReturnError(&pq.Error{Constraint: "uq_saving_accounts_owner_name"})

		_, err := repo.Save(ctx, testAccount())
		require.ErrorIs(t, err, domain.ErrAccountNameTaken)
	})
}

func TestRepoPGSSavePair(t *testing.T) {
	ctx := context.Background()

	a := testAccount()
	b := testAccount()
	b.ID = 2
	b.Name = "Second"

	t.Run("OK", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		savedA := a
		savedA.Version = 2
		savedB := b
		savedB.Version = 2

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(saveQuery)).
			WillReturnRows(accountRows(savedA))
		mock.ExpectQuery(regexp.QuoteMeta(saveQuery)).
			WillReturnRows(accountRows(savedB))
		mock.ExpectCommit()

		gotA, gotB, err := repo.SavePair(ctx, a, b)
		require.NoError(t, err)
		require.Equal(t, a.ID, gotA.ID)
		require.Equal(t, b.ID, gotB.ID)
	})

	t.Run("AscendingOrder", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		savedA := a
		savedA.Version = 2
		savedB := b
		savedB.Version = 2

		mock.ExpectBegin()
		// The lower id is written first even when passed second.
		mock.ExpectQuery(regexp.QuoteMeta(saveQuery)).
			WithArgs(
				a.Name, a.Currency, a.Status, a.Balance, a.InterestAPR,
				a.Compounding, a.DayCount, a.LastInterestPostedAt, a.Notes,
				a.UpdatedAt, a.ID, a.Version,
			).
			WillReturnRows(accountRows(savedA))
		mock.ExpectQuery(regexp.QuoteMeta(saveQuery)).
			WillReturnRows(accountRows(savedB))
		mock.ExpectCommit()

		gotB, gotA, err := repo.SavePair(ctx, b, a)
		require.NoError(t, err)
		require.Equal(t, b.ID, gotB.ID)
		require.Equal(t, a.ID, gotA.ID)
	})

	t.Run("StaleSecondRollsBack", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		savedA := a
		savedA.Version = 2

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(saveQuery)).
			WillReturnRows(accountRows(savedA))
		mock.ExpectQuery(regexp.QuoteMeta(saveQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		_, _, err := repo.SavePair(ctx, a, b)
		require.ErrorIs(t, err, domain.ErrStaleWrite)
	})
}

func TestRepoPGSExistsName(t *testing.T) {
	ctx := context.Background()

	repo, mock := newPGSMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(existsNameQuery)).
		WithArgs(int32(10), "Main").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.ExistsName(ctx, 10, "Main")
	require.NoError(t, err)
	require.True(t, taken)

	mock.ExpectQuery(regexp.QuoteMeta(existsNameExcludingQuery)).
		WithArgs(int32(10), "Main", int32(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	taken, err = repo.ExistsNameExcluding(ctx, 10, "Main", 1)
	require.NoError(t, err)
	require.False(t, taken)
}

func TestRepoPGSList(t *testing.T) {
	ctx := context.Background()

	t.Run("All", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		a := testAccount()
		b := testAccount()
		b.ID = 2
		b.Name = "Second"

		rows := accountRows(a).AddRow(
			b.ID, b.OwnerID, b.Name, b.Currency, string(b.Status),
			b.Balance.String(), b.InterestAPR.String(),
			string(b.Compounding), string(b.DayCount), b.LastInterestPostedAt,
			b.Notes, b.CreatedAt, b.UpdatedAt, b.Version,
		)

		mock.ExpectQuery(regexp.QuoteMeta(listQuery)).
			WithArgs(int32(10)).
			WillReturnRows(rows)

		items, err := repo.List(ctx, 10, nil)
		require.NoError(t, err)
		require.Len(t, items, 2)
		require.Equal(t, "Main", items[0].Name)
		require.Equal(t, "Second", items[1].Name)
	})

	t.Run("ByStatus", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		active := domain.StatusActive

		mock.ExpectQuery(regexp.QuoteMeta(listByStatusQuery)).
			WithArgs(int32(10), active).
			WillReturnRows(accountRows(testAccount()))

		items, err := repo.List(ctx, 10, &active)
		require.NoError(t, err)
		require.Len(t, items, 1)
	})
}

func TestRepoPGSDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("OK", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		mock.ExpectExec(regexp.QuoteMeta(deleteQuery)).
			WithArgs(int32(1), int32(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(ctx, testAccount()))
	})

	t.Run("StaleWrite", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		mock.ExpectExec(regexp.QuoteMeta(deleteQuery)).
			WithArgs(int32(1), int32(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(ctx, testAccount())
		require.ErrorIs(t, err, domain.ErrStaleWrite)
	})

	t.Run("ExecError", func(t *testing.T) {
		repo, mock := newPGSMock(t)

		mock.ExpectExec(regexp.QuoteMeta(deleteQuery)).
			WillReturnError(&pq.Error{Code: "57014"})

		err := repo.Delete(ctx, testAccount())
		require.ErrorIs(t, err, errorspkg.ErrInternal)
	})
}
