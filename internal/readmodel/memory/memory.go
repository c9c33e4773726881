// Package memory holds an in-memory read-model store. It mirrors the
// SQLite store's semantics and backs the tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"contabile/internal/core"
	"contabile/internal/readmodel"
)

// Store implements every readmodel port with map-backed tables.
type Store struct {
	mu            sync.RWMutex
	accounts      map[core.AccountID]readmodel.Account
	ledgerMonths  map[string]readmodel.LedgerMonth
	movementTypes map[core.MovementTypeID]readmodel.MovementType
	tagCategories map[core.TagCategoryID]readmodel.TagCategory
}

func New() *Store {
	return &Store{
		accounts:      make(map[core.AccountID]readmodel.Account),
		ledgerMonths:  make(map[string]readmodel.LedgerMonth),
		movementTypes: make(map[core.MovementTypeID]readmodel.MovementType),
		tagCategories: make(map[core.TagCategoryID]readmodel.TagCategory),
	}
}

func (s *Store) UpsertAccount(_ context.Context, account readmodel.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.AccountID] = account
	return nil
}

func (s *Store) UpdateActiveMonth(_ context.Context, id core.AccountID, month core.MonthYear) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return false, nil
	}
	account.ActiveMonth = month
	s.accounts[id] = account
	return true, nil
}

func (s *Store) GetAccount(_ context.Context, id core.AccountID) (readmodel.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return readmodel.Account{}, fmt.Errorf("account %s: %w", id, readmodel.ErrNotFound)
	}
	return account, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]readmodel.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]readmodel.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].AccountID.String() < accounts[j].AccountID.String()
	})
	return accounts, nil
}

func (s *Store) AccountExists(_ context.Context, id core.AccountID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[id]
	return ok, nil
}

func (s *Store) UpsertLedgerMonth(_ context.Context, month readmodel.LedgerMonth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.ledgerMonths[month.LedgerID.String()]; ok {
		// Keep registered transactions on replayed opens.
		month.Transactions = existing.Transactions
		month.Balance = existing.Balance
		month.Closed = existing.Closed
	}
	s.ledgerMonths[month.LedgerID.String()] = month
	return nil
}

func (s *Store) AppendTransaction(_ context.Context, id core.LedgerID, tx readmodel.Transaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	month, ok := s.ledgerMonths[id.String()]
	if !ok {
		return false, fmt.Errorf("ledger month %s: %w", id, readmodel.ErrNotFound)
	}
	for _, existing := range month.Transactions {
		if existing.TransactionID == tx.TransactionID {
			return false, nil
		}
	}
	month.Transactions = append(month.Transactions, tx)
	sort.Slice(month.Transactions, func(i, j int) bool {
		a, b := month.Transactions[i], month.Transactions[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		return a.TransactionID.String() < b.TransactionID.String()
	})
	month.Balance.Cents += tx.Amount.Cents
	s.ledgerMonths[id.String()] = month
	return true, nil
}

func (s *Store) CloseLedgerMonth(_ context.Context, id core.LedgerID, balance core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	month, ok := s.ledgerMonths[id.String()]
	if !ok {
		return fmt.Errorf("ledger month %s: %w", id, readmodel.ErrNotFound)
	}
	month.Balance = balance
	month.Closed = true
	s.ledgerMonths[id.String()] = month
	return nil
}

func (s *Store) GetLedgerMonth(_ context.Context, id core.LedgerID) (readmodel.LedgerMonth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	month, ok := s.ledgerMonths[id.String()]
	if !ok {
		return readmodel.LedgerMonth{}, fmt.Errorf("ledger month %s: %w", id, readmodel.ErrNotFound)
	}
	return month, nil
}

func (s *Store) UpsertMovementType(_ context.Context, mt readmodel.MovementType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movementTypes[mt.MovementTypeID] = mt
	return nil
}

func (s *Store) GetMovementType(_ context.Context, id core.MovementTypeID) (readmodel.MovementType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mt, ok := s.movementTypes[id]
	if !ok {
		return readmodel.MovementType{}, fmt.Errorf("movement type %s: %w", id, readmodel.ErrNotFound)
	}
	return mt, nil
}

func (s *Store) ListMovementTypes(_ context.Context) ([]readmodel.MovementType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]readmodel.MovementType, 0, len(s.movementTypes))
	for _, mt := range s.movementTypes {
		types = append(types, mt)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i].MovementTypeID.String() < types[j].MovementTypeID.String()
	})
	return types, nil
}

func (s *Store) UpsertTagCategory(_ context.Context, category readmodel.TagCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.tagCategories[category.TagCategoryID]; ok {
		category.Tags = existing.Tags
	}
	s.tagCategories[category.TagCategoryID] = category
	return nil
}

func (s *Store) AppendTag(_ context.Context, id core.TagCategoryID, tag readmodel.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	category, ok := s.tagCategories[id]
	if !ok {
		return fmt.Errorf("tag category %s: %w", id, readmodel.ErrNotFound)
	}
	for _, existing := range category.Tags {
		if existing.TagID == tag.TagID {
			return nil
		}
	}
	category.Tags = append(category.Tags, tag)
	s.tagCategories[id] = category
	return nil
}

func (s *Store) GetTagCategory(_ context.Context, id core.TagCategoryID) (readmodel.TagCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	category, ok := s.tagCategories[id]
	if !ok {
		return readmodel.TagCategory{}, fmt.Errorf("tag category %s: %w", id, readmodel.ErrNotFound)
	}
	return category, nil
}

func (s *Store) ListTagCategories(_ context.Context) ([]readmodel.TagCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	categories := make([]readmodel.TagCategory, 0, len(s.tagCategories))
	for _, category := range s.tagCategories {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].TagCategoryID.String() < categories[j].TagCategoryID.String()
	})
	return categories, nil
}

func (s *Store) TagCategoryExists(_ context.Context, id core.TagCategoryID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tagCategories[id]
	return ok, nil
}

func (s *Store) TagCategoryNameExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, category := range s.tagCategories {
		if strings.EqualFold(category.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) TagExists(_ context.Context, id core.TagID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, category := range s.tagCategories {
		for _, tag := range category.Tags {
			if tag.TagID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Store) TagNameExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, category := range s.tagCategories {
		for _, tag := range category.Tags {
			if strings.EqualFold(tag.Name, name) {
				return true, nil
			}
		}
	}
	return false, nil
}

var _ readmodel.Store = (*Store)(nil)
