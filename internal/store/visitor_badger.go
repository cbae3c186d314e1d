package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"snapforge/internal/domain"
)

const walletKeyPrefix = "wallet:"

// WalletStore keeps anonymous visitor wallets in a local badger database.
// Wallets are device-scoped and disposable, so they never touch Postgres.
type WalletStore struct {
	db *badger.DB
}

func NewWalletStore(db *badger.DB) *WalletStore {
	return &WalletStore{db: db}
}

// OpenWalletDB opens (or creates) the badger directory holding wallets.
func OpenWalletDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open wallet db: %w", err)
	}
	return db, nil
}

func (s *WalletStore) Wallet(_ context.Context, visitorID string) (*domain.Wallet, error) {
	var w domain.Wallet
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(walletKey(visitorID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &w)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load wallet %s: %w", visitorID, err)
	}
	return &w, nil
}

func (s *WalletStore) SaveWallet(_ context.Context, w *domain.Wallet) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode wallet: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(walletKey(w.VisitorID), raw)
	})
	if err != nil {
		return fmt.Errorf("save wallet %s: %w", w.VisitorID, err)
	}
	return nil
}

func (s *WalletStore) DeleteWallet(_ context.Context, visitorID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(walletKey(visitorID))
	})
	if err != nil {
		return fmt.Errorf("delete wallet %s: %w", visitorID, err)
	}
	return nil
}

func walletKey(visitorID string) []byte {
	return []byte(walletKeyPrefix + visitorID)
}
