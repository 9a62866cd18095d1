// Package domain provides definitions of all entities.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Elmar465/SpendSnap/pkg/moneypkg"
)

var (
	// ErrAccountNotFound indicates that the account does not exist or is not
	// owned by the caller. Ownership failures are indistinguishable from
	// non-existence so that other users' accounts are never revealed.
	ErrAccountNotFound = errors.New("account not found")
	// ErrOwnerNotFound indicates that the owner for the account is not found.
	ErrOwnerNotFound = errors.New("owner not found")
	// ErrAccountNameTaken indicates that the owner already has an account with
	// the given name.
	ErrAccountNameTaken = errors.New("account name already exists for this user")
	// ErrAccountInactive indicates that the account no longer accepts money movement.
	ErrAccountInactive = errors.New("account is inactive")
	// ErrInsufficientBalance indicates that the account does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient funds")
	// ErrInvalidAmount indicates an unparsable amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNonPositiveAmount indicates a zero or negative amount.
	ErrNonPositiveAmount = errors.New("amount must be positive")
	// ErrNegativeOpeningBalance indicates a negative opening balance on create.
	ErrNegativeOpeningBalance = errors.New("opening balance cannot be negative")
	// ErrSameAccountTransfer indicates a transfer between an account and itself.
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")
	// ErrCurrencyMismatch indicates that transfer accounts have different currencies.
	ErrCurrencyMismatch = errors.New("currencies must match for transfer")
	// ErrCurrencyChange indicates a currency change attempt on a funded account.
	ErrCurrencyChange = errors.New("cannot change currency while balance is not zero")
	// ErrBlankName indicates an empty or whitespace-only account name.
	ErrBlankName = errors.New("name cannot be blank")
	// ErrNegativeInterestRate indicates a negative interest rate.
	ErrNegativeInterestRate = errors.New("interest rate cannot be negative")
	// ErrBalanceImmutable indicates a direct balance edit attempt.
	ErrBalanceImmutable = errors.New("use deposit, withdraw or transfer to change balance")
	// ErrBalanceNotZero indicates a deletion attempt on a funded account.
	ErrBalanceNotZero = errors.New("withdraw funds before deleting the account")
	// ErrStaleWrite indicates that the account was modified concurrently since
	// it was read. The whole operation is safe to retry.
	ErrStaleWrite = errors.New("account version conflict")
)

// AccountStatus describes the lifecycle state of a savings account.
type AccountStatus string

// Account lifecycle states. INACTIVE is terminal for money movement but the
// record remains readable and listable.
const (
	StatusActive   AccountStatus = "ACTIVE"
	StatusInactive AccountStatus = "INACTIVE"
)

// Account holds savings account state for a single owner and currency.
//
// Balance is the live balance, mutated in place by every money operation.
// Version increments on every successful write and backs optimistic
// concurrency detection at the store boundary.
type Account struct {
	ID                   int32                `json:"id"`
	OwnerID              int32                `json:"owner_id"`
	Name                 string               `json:"name"`
	Currency             string               `json:"currency"`
	Status               AccountStatus        `json:"status"`
	Balance              decimal.Decimal      `json:"balance"`
	InterestAPR          decimal.Decimal      `json:"interest_apr"`
	Compounding          moneypkg.Compounding `json:"compounding"`
	DayCount             moneypkg.DayCount    `json:"day_count"`
	LastInterestPostedAt *time.Time           `json:"last_interest_posted_at,omitempty"`
	Notes                string               `json:"notes,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
	Version              int32                `json:"version"`
}

// CreateAccountParams is the input data to create an account.
type CreateAccountParams struct {
	OwnerID              int32
	Name                 string
	Currency             string
	Status               AccountStatus
	Balance              decimal.Decimal
	InterestAPR          decimal.Decimal
	Compounding          moneypkg.Compounding
	DayCount             moneypkg.DayCount
	LastInterestPostedAt *time.Time
	Notes                string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// UpdateAccountParams is the partial-update input for an account.
// Nil fields are left unchanged.
type UpdateAccountParams struct {
	Name                 *string
	Currency             *string
	Status               *AccountStatus
	Balance              *decimal.Decimal
	InterestAPR          *decimal.Decimal
	Compounding          *moneypkg.Compounding
	DayCount             *moneypkg.DayCount
	LastInterestPostedAt *time.Time
	Notes                *string
}

// TransferResult holds both sides of a committed transfer.
type TransferResult struct {
	FromAccount Account `json:"from_account"`
	ToAccount   Account `json:"to_account"`
}
