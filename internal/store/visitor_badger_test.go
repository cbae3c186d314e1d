package store

import (
	"context"
	"errors"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"snapforge/internal/domain"
)

func newTestWalletStore(t *testing.T) *WalletStore {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWalletStore(db)
}

func TestWalletStoreRoundTrip(t *testing.T) {
	s := newTestWalletStore(t)
	ctx := context.Background()

	want := &domain.Wallet{VisitorID: "v-1", Credits: 15, GrantedAt: time.Now().UTC().Truncate(time.Second)}
	if err := s.SaveWallet(ctx, want); err != nil {
		t.Fatalf("SaveWallet: %v", err)
	}

	got, err := s.Wallet(ctx, "v-1")
	if err != nil {
		t.Fatalf("Wallet: %v", err)
	}
	if got.VisitorID != want.VisitorID || got.Credits != want.Credits {
		t.Fatalf("Wallet = %+v, want %+v", got, want)
	}
	if !got.GrantedAt.Equal(want.GrantedAt) {
		t.Fatalf("GrantedAt = %v, want %v", got.GrantedAt, want.GrantedAt)
	}
}

func TestWalletStoreMissingIsNotFound(t *testing.T) {
	s := newTestWalletStore(t)
	if _, err := s.Wallet(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Wallet error = %v, want ErrNotFound", err)
	}
}

func TestWalletStoreDelete(t *testing.T) {
	s := newTestWalletStore(t)
	ctx := context.Background()

	if err := s.SaveWallet(ctx, &domain.Wallet{VisitorID: "v-2", Credits: 3, GrantedAt: time.Now()}); err != nil {
		t.Fatalf("SaveWallet: %v", err)
	}
	if err := s.DeleteWallet(ctx, "v-2"); err != nil {
		t.Fatalf("DeleteWallet: %v", err)
	}
	if _, err := s.Wallet(ctx, "v-2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Wallet after delete = %v, want ErrNotFound", err)
	}

	// Deleting an absent wallet is a no-op.
	if err := s.DeleteWallet(ctx, "v-2"); err != nil {
		t.Fatalf("second DeleteWallet: %v", err)
	}
}

func TestWalletStoreOverwrite(t *testing.T) {
	s := newTestWalletStore(t)
	ctx := context.Background()

	w := &domain.Wallet{VisitorID: "v-3", Credits: 15, GrantedAt: time.Now()}
	if err := s.SaveWallet(ctx, w); err != nil {
		t.Fatalf("SaveWallet: %v", err)
	}
	w.Credits = 12
	if err := s.SaveWallet(ctx, w); err != nil {
		t.Fatalf("SaveWallet overwrite: %v", err)
	}

	got, err := s.Wallet(ctx, "v-3")
	if err != nil {
		t.Fatalf("Wallet: %v", err)
	}
	if got.Credits != 12 {
		t.Fatalf("Credits = %d, want 12", got.Credits)
	}
}
