// Package accountservice manages business logic layer of savings accounts.
package accountservice

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Elmar465/SpendSnap/internal/domain"
	"github.com/Elmar465/SpendSnap/pkg/currencypkg"
	"github.com/Elmar465/SpendSnap/pkg/moneypkg"
)

// aprScale is the stored scale of the annual interest rate.
const aprScale = 6

// Repo provides data access layer interface needed by account service layer.
type Repo interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	GetOwned(ctx context.Context, id, ownerID int32) (domain.Account, error)
	Save(ctx context.Context, a domain.Account) (domain.Account, error)
	SavePair(ctx context.Context, a, b domain.Account) (domain.Account, domain.Account, error)
	ExistsName(ctx context.Context, ownerID int32, name string) (bool, error)
	ExistsNameExcluding(ctx context.Context, ownerID int32, name string, excludeID int32) (bool, error)
	List(ctx context.Context, ownerID int32, status *domain.AccountStatus) ([]domain.Account, error)
	Delete(ctx context.Context, a domain.Account) error
}

// Service facilitates account service layer logic.
//
// Every mutating operation loads through the owner-scoped lookup, validates,
// and writes back through the store's versioned save; a concurrent commit on
// the same account surfaces as domain.ErrStaleWrite and the caller retries
// the whole operation.
type Service struct {
	repo Repo
	now  func() time.Time
}

// New returns account service struct to manage account business logic.
func New(r Repo) *Service {
	return NewWithClock(r, time.Now)
}

// NewWithClock returns an account service reading time from now.
func NewWithClock(r Repo, now func() time.Time) *Service {
	return &Service{repo: r, now: now}
}

// Create creates and returns an ACTIVE account for the given owner.
func (s *Service) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	arg.Name = strings.TrimSpace(arg.Name)
	if arg.Name != "" {
		taken, err := s.repo.ExistsName(ctx, arg.OwnerID, arg.Name)
		if err != nil {
			return domain.Account{}, err
		}

		if taken {
			l.Info().Str("name", arg.Name).Msg("duplicate account name")
			return domain.Account{}, domain.ErrAccountNameTaken
		}
	}

	arg.Currency = currencypkg.Normalize(arg.Currency)

	arg.Balance = moneypkg.Normalize(arg.Balance)
	if arg.Balance.IsNegative() {
		return domain.Account{}, domain.ErrNegativeOpeningBalance
	}

	if arg.InterestAPR.IsNegative() {
		return domain.Account{}, domain.ErrNegativeInterestRate
	}

	arg.InterestAPR = arg.InterestAPR.Round(aprScale)

	if arg.Status == "" {
		arg.Status = domain.StatusActive
	}

	if arg.Compounding == "" {
		arg.Compounding = moneypkg.CompoundingMonthly
	}

	if arg.DayCount == "" {
		arg.DayCount = moneypkg.DayCountAct365F
	}

	now := s.now()
	arg.CreatedAt = now
	arg.UpdatedAt = now

	return s.repo.Create(ctx, arg)
}

// Get returns the account snapshot for the given owner and account id.
func (s *Service) Get(ctx context.Context, ownerID, accountID int32) (domain.Account, error) {
	return s.repo.GetOwned(ctx, accountID, ownerID)
}

// List returns the owner's accounts, optionally filtered by status,
// newest-updated first.
func (s *Service) List(ctx context.Context, ownerID int32, status *domain.AccountStatus) ([]domain.Account, error) {
	return s.repo.List(ctx, ownerID, status)
}

// GetBalance returns the account's current balance at display scale.
func (s *Service) GetBalance(ctx context.Context, ownerID, accountID int32) (decimal.Decimal, error) {
	a, err := s.repo.GetOwned(ctx, accountID, ownerID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return moneypkg.Normalize(a.Balance), nil
}

func parseAmount(ctx context.Context, amount string) (decimal.Decimal, error) {
	l := zerolog.Ctx(ctx)

	amt, err := moneypkg.Parse(amount)
	if err != nil {
		l.Info().Err(err).Send()
		return decimal.Decimal{}, domain.ErrInvalidAmount
	}

	if !amt.IsPositive() {
		return decimal.Decimal{}, domain.ErrNonPositiveAmount
	}

	return amt, nil
}

// Deposit adds amount to the account's balance.
// The memo is accepted but not persisted; there is no entry journal.
func (s *Service) Deposit(ctx context.Context, ownerID, accountID int32, amount, memo string) (domain.Account, error) {
	amt, err := parseAmount(ctx, amount)
	if err != nil {
		return domain.Account{}, err
	}

	a, err := s.repo.GetOwned(ctx, accountID, ownerID)
	if err != nil {
		return domain.Account{}, err
	}

	if a.Status != domain.StatusActive {
		return domain.Account{}, domain.ErrAccountInactive
	}

	a.Balance = a.Balance.Add(amt)
	a.UpdatedAt = s.now()

	return s.repo.Save(ctx, a)
}

// Withdraw subtracts amount from the account's balance.
// The memo is accepted but not persisted; there is no entry journal.
func (s *Service) Withdraw(ctx context.Context, ownerID, accountID int32, amount, memo string) (domain.Account, error) {
	amt, err := parseAmount(ctx, amount)
	if err != nil {
		return domain.Account{}, err
	}

	a, err := s.repo.GetOwned(ctx, accountID, ownerID)
	if err != nil {
		return domain.Account{}, err
	}

	if a.Status != domain.StatusActive {
		return domain.Account{}, domain.ErrAccountInactive
	}

	if a.Balance.LessThan(amt) {
		return domain.Account{}, domain.ErrInsufficientBalance
	}

	a.Balance = a.Balance.Sub(amt)
	a.UpdatedAt = s.now()

	return s.repo.Save(ctx, a)
}

// Transfer moves amount between two accounts of the same owner. Both balance
// updates commit together or not at all.
func (s *Service) Transfer(ctx context.Context, ownerID, fromID, toID int32, amount, memo string) (domain.TransferResult, error) {
	var result domain.TransferResult

	if fromID == toID {
		return result, domain.ErrSameAccountTransfer
	}

	amt, err := parseAmount(ctx, amount)
	if err != nil {
		return result, err
	}

	// Load the smaller id first so that concurrent transfers between the
	// same pair of accounts acquire their locks in the same order.
	firstID, secondID := fromID, toID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	first, err := s.repo.GetOwned(ctx, firstID, ownerID)
	if err != nil {
		return result, err
	}

	second, err := s.repo.GetOwned(ctx, secondID, ownerID)
	if err != nil {
		return result, err
	}

	from, to := first, second
	if first.ID != fromID {
		from, to = second, first
	}

	if from.Status != domain.StatusActive || to.Status != domain.StatusActive {
		return result, domain.ErrAccountInactive
	}

	if currencypkg.Normalize(from.Currency) != currencypkg.Normalize(to.Currency) {
		return result, domain.ErrCurrencyMismatch
	}

	if from.Balance.LessThan(amt) {
		return result, domain.ErrInsufficientBalance
	}

	now := s.now()

	from.Balance = from.Balance.Sub(amt)
	from.UpdatedAt = now
	to.Balance = to.Balance.Add(amt)
	to.UpdatedAt = now

	result.FromAccount, result.ToAccount, err = s.repo.SavePair(ctx, from, to)
	if err != nil {
		return domain.TransferResult{}, err
	}

	return result, nil
}

// Archive transitions the account to INACTIVE. Archiving an already
// inactive account returns its current state without a write.
func (s *Service) Archive(ctx context.Context, ownerID, accountID int32) (domain.Account, error) {
	a, err := s.repo.GetOwned(ctx, accountID, ownerID)
	if err != nil {
		return domain.Account{}, err
	}

	if a.Status == domain.StatusInactive {
		return a, nil
	}

	a.Status = domain.StatusInactive
	a.UpdatedAt = s.now()

	return s.repo.Save(ctx, a)
}

// Update applies the provided fields of the patch, each validated
// independently. Direct balance edits are rejected; balances change only
// through deposit, withdraw or transfer.
func (s *Service) Update(ctx context.Context, ownerID, accountID int32, patch domain.UpdateAccountParams) (domain.Account, error) {
	a, err := s.repo.GetOwned(ctx, accountID, ownerID)
	if err != nil {
		return domain.Account{}, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return domain.Account{}, domain.ErrBlankName
		}

		// Renaming to the current name, case-insensitively, is a no-op.
		if !strings.EqualFold(name, a.Name) {
			taken, err := s.repo.ExistsNameExcluding(ctx, ownerID, name, accountID)
			if err != nil {
				return domain.Account{}, err
			}

			if taken {
				return domain.Account{}, domain.ErrAccountNameTaken
			}

			a.Name = name
		}
	}

	if patch.Currency != nil {
		cur := currencypkg.Normalize(*patch.Currency)
		if cur != currencypkg.Normalize(a.Currency) {
			if !a.Balance.IsZero() {
				return domain.Account{}, domain.ErrCurrencyChange
			}

			a.Currency = cur
		}
	}

	if patch.Status != nil && *patch.Status != a.Status {
		a.Status = *patch.Status
	}

	if patch.InterestAPR != nil {
		if patch.InterestAPR.IsNegative() {
			return domain.Account{}, domain.ErrNegativeInterestRate
		}

		a.InterestAPR = patch.InterestAPR.Round(aprScale)
	}

	if patch.Compounding != nil {
		a.Compounding = *patch.Compounding
	}

	if patch.DayCount != nil {
		a.DayCount = *patch.DayCount
	}

	if patch.LastInterestPostedAt != nil {
		a.LastInterestPostedAt = patch.LastInterestPostedAt
	}

	if patch.Notes != nil {
		a.Notes = strings.TrimSpace(*patch.Notes)
	}

	if patch.Balance != nil && !patch.Balance.Equal(a.Balance) {
		return domain.Account{}, domain.ErrBalanceImmutable
	}

	a.UpdatedAt = s.now()

	return s.repo.Save(ctx, a)
}

// Delete removes the account. Only zero-balance accounts can be deleted.
func (s *Service) Delete(ctx context.Context, ownerID, accountID int32) error {
	a, err := s.repo.GetOwned(ctx, accountID, ownerID)
	if err != nil {
		return err
	}

	if !a.Balance.IsZero() {
		return domain.ErrBalanceNotZero
	}

	return s.repo.Delete(ctx, a)
}

// AccrueInterestIfDue posts interest for every compounding period that has
// fully elapsed since the account's watermark, up to asOf (now when nil).
//
// Each period's interest is simple interest on the balance as of the start
// of that period and is folded into the working balance before the next
// period is evaluated. The watermark advances to the last period boundary
// reached. The returned amount is the sum of newly posted interest.
func (s *Service) AccrueInterestIfDue(ctx context.Context, ownerID, accountID int32, asOf *time.Time) (decimal.Decimal, error) {
	zero := moneypkg.Normalize(decimal.Zero)

	a, err := s.repo.GetOwned(ctx, accountID, ownerID)
	if err != nil {
		return zero, err
	}

	if !a.InterestAPR.IsPositive() {
		return zero, nil
	}

	now := s.now()
	if asOf != nil {
		now = *asOf
	}

	cursor := a.CreatedAt
	if a.LastInterestPostedAt != nil {
		cursor = *a.LastInterestPostedAt
	}

	denom := moneypkg.Denominator(a.DayCount)

	balance := a.Balance
	total := decimal.Zero

	for {
		periodEnd := moneypkg.NextPeriodEnd(cursor, a.Compounding)
		if periodEnd.After(now) {
			// The current period has not fully elapsed; leave it unposted.
			break
		}

		days := moneypkg.WholeDays(cursor, periodEnd)

		interest := moneypkg.Interest(balance, a.InterestAPR, days, denom)
		if interest.IsPositive() {
			balance = balance.Add(interest)
			total = total.Add(interest)
		}

		cursor = periodEnd
	}

	if total.IsPositive() {
		posted := cursor

		a.Balance = moneypkg.Normalize(balance)
		a.LastInterestPostedAt = &posted
		a.UpdatedAt = s.now()

		if _, err := s.repo.Save(ctx, a); err != nil {
			return zero, err
		}
	}

	return moneypkg.Normalize(total), nil
}

// PreviewInterest computes the interest the current balance would earn over
// [from, to) without mutating any account state. It returns 0 when the rate
// is not positive or to is before from.
func (s *Service) PreviewInterest(ctx context.Context, ownerID, accountID int32, from, to time.Time) (decimal.Decimal, error) {
	zero := moneypkg.Normalize(decimal.Zero)

	a, err := s.repo.GetOwned(ctx, accountID, ownerID)
	if err != nil {
		return zero, err
	}

	if !a.InterestAPR.IsPositive() || to.Before(from) {
		return zero, nil
	}

	days := moneypkg.WholeDays(from, to)
	denom := moneypkg.Denominator(a.DayCount)

	interest := moneypkg.Interest(a.Balance, a.InterestAPR, days, denom)
	if interest.IsNegative() {
		return zero, nil
	}

	return moneypkg.Normalize(interest), nil
}
