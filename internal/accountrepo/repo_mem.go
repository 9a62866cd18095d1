// Package accountrepo manages repository layer of savings accounts.
package accountrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Elmar465/SpendSnap/internal/domain"
)

// RepoMem is an in-memory account store.
//
// It implements the same contract as RepoPGS with a mutex-guarded map and
// compare-and-swap on the account version. Cross-owner lookups surface as
// domain.ErrAccountNotFound, never as a distinct signal.
type RepoMem struct {
	mu       sync.RWMutex
	nextID   int32
	accounts map[int32]domain.Account
	owners   map[int32]struct{}
}

// NewRepoMem returns an empty in-memory account store.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		accounts: make(map[int32]domain.Account),
		owners:   make(map[int32]struct{}),
	}
}

// RegisterOwner makes ownerID a valid account owner.
func (r *RepoMem) RegisterOwner(ownerID int32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.owners[ownerID] = struct{}{}
}

func (r *RepoMem) nameTakenLocked(ownerID int32, name string, excludeID int32) bool {
	for _, a := range r.accounts {
		if a.OwnerID != ownerID || a.ID == excludeID {
			continue
		}

		if strings.EqualFold(a.Name, name) {
			return true
		}
	}

	return false
}

// Create creates the account and then returns it.
func (r *RepoMem) Create(_ context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owners[arg.OwnerID]; !ok {
		return domain.Account{}, domain.ErrOwnerNotFound
	}

	if arg.Name != "" && r.nameTakenLocked(arg.OwnerID, arg.Name, 0) {
		return domain.Account{}, domain.ErrAccountNameTaken
	}

	r.nextID++

	a := domain.Account{
		ID:                   r.nextID,
		OwnerID:              arg.OwnerID,
		Name:                 arg.Name,
		Currency:             arg.Currency,
		Status:               arg.Status,
		Balance:              arg.Balance,
		InterestAPR:          arg.InterestAPR,
		Compounding:          arg.Compounding,
		DayCount:             arg.DayCount,
		LastInterestPostedAt: arg.LastInterestPostedAt,
		Notes:                arg.Notes,
		CreatedAt:            arg.CreatedAt,
		UpdatedAt:            arg.UpdatedAt,
		Version:              1,
	}

	r.accounts[a.ID] = a

	return a, nil
}

// GetOwned returns the account with the given id if it belongs to ownerID.
func (r *RepoMem) GetOwned(_ context.Context, id, ownerID int32) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok || a.OwnerID != ownerID {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return a, nil
}

func (r *RepoMem) saveLocked(a domain.Account) (domain.Account, error) {
	cur, ok := r.accounts[a.ID]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	if cur.Version != a.Version {
		return domain.Account{}, domain.ErrStaleWrite
	}

	if a.Name != "" && r.nameTakenLocked(a.OwnerID, a.Name, a.ID) {
		return domain.Account{}, domain.ErrAccountNameTaken
	}

	a.Version++
	r.accounts[a.ID] = a

	return a, nil
}

// Save persists the account if its version still matches the stored one.
func (r *RepoMem) Save(_ context.Context, a domain.Account) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.saveLocked(a)
}

// SavePair persists two accounts atomically: either both versioned writes
// apply or neither does. Writes are applied in ascending id order.
func (r *RepoMem) SavePair(ctx context.Context, a, b domain.Account) (domain.Account, domain.Account, error) {
	if b.ID < a.ID {
		savedB, savedA, err := r.SavePair(ctx, b, a)
		return savedA, savedB, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	curA, okA := r.accounts[a.ID]
	curB, okB := r.accounts[b.ID]

	if !okA || !okB {
		return domain.Account{}, domain.Account{}, domain.ErrAccountNotFound
	}

	if curA.Version != a.Version || curB.Version != b.Version {
		return domain.Account{}, domain.Account{}, domain.ErrStaleWrite
	}

	savedA, err := r.saveLocked(a)
	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}

	savedB, err := r.saveLocked(b)
	if err != nil {
		// Roll the first write back to keep the pair atomic.
		r.accounts[a.ID] = curA
		return domain.Account{}, domain.Account{}, err
	}

	return savedA, savedB, nil
}

// ExistsName reports whether ownerID already has an account named name,
// comparing case-insensitively.
func (r *RepoMem) ExistsName(_ context.Context, ownerID int32, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.nameTakenLocked(ownerID, name, 0), nil
}

// ExistsNameExcluding is ExistsName skipping the account with id excludeID.
func (r *RepoMem) ExistsNameExcluding(_ context.Context, ownerID int32, name string, excludeID int32) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.nameTakenLocked(ownerID, name, excludeID), nil
}

// List returns the owner's accounts, optionally filtered by status,
// newest-updated first.
func (r *RepoMem) List(_ context.Context, ownerID int32, status *domain.AccountStatus) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := []domain.Account{}

	for _, a := range r.accounts {
		if a.OwnerID != ownerID {
			continue
		}

		if status != nil && a.Status != *status {
			continue
		}

		items = append(items, a)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})

	return items, nil
}

// Delete removes the account if its version still matches the stored one.
func (r *RepoMem) Delete(_ context.Context, a domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.accounts[a.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}

	if cur.Version != a.Version {
		return domain.ErrStaleWrite
	}

	delete(r.accounts, a.ID)

	return nil
}
