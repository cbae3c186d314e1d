package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"snapforge/internal/domain"
)

type fakeProfiles struct {
	profiles  map[string]*domain.Profile
	updateErr error
	renewals  int
}

func (f *fakeProfiles) Profile(ctx context.Context, id string) (*domain.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) UpdateCredits(ctx context.Context, id string, credits int) (*domain.Profile, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Credits = credits
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) RenewCredits(ctx context.Context, id string, credits int, renewedAt time.Time) (*domain.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	f.renewals++
	p.Credits = credits
	p.RenewedAt = renewedAt
	cp := *p
	return &cp, nil
}

type fakeWallets struct {
	wallets map[string]*domain.Wallet
	saveErr error
}

func (f *fakeWallets) Wallet(ctx context.Context, visitorID string) (*domain.Wallet, error) {
	w, ok := f.wallets[visitorID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWallets) SaveWallet(ctx context.Context, w *domain.Wallet) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *w
	f.wallets[w.VisitorID] = &cp
	return nil
}

func (f *fakeWallets) DeleteWallet(ctx context.Context, visitorID string) error {
	delete(f.wallets, visitorID)
	return nil
}

func testConfig() Config {
	return Config{
		Costs:        domain.CostTable{Image: 3, Video: 10, Prompt: 1, Chat: 1},
		VisitorGrant: 15,
		Allotments:   map[domain.Plan]int{domain.PlanFree: 30, domain.PlanPro: 300},
		RenewalEvery: 30 * 24 * time.Hour,
	}
}

func newTestLedger(profiles *fakeProfiles, wallets *fakeWallets) *Ledger {
	if profiles == nil {
		profiles = &fakeProfiles{profiles: map[string]*domain.Profile{}}
	}
	if wallets == nil {
		wallets = &fakeWallets{wallets: map[string]*domain.Wallet{}}
	}
	return New(profiles, wallets, testConfig(), zerolog.Nop())
}

func TestVisitorDebitSequence(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(nil, nil)
	id := domain.VisitorIdentity("v1")

	w, err := l.OpenWallet(ctx, "v1")
	if err != nil {
		t.Fatalf("OpenWallet() error: %v", err)
	}
	if w.Credits != 15 {
		t.Fatalf("starting grant = %d, want 15", w.Credits)
	}

	cost := l.Cost(domain.OpImage)
	if got := l.Debit(ctx, id, cost); got != 12 {
		t.Fatalf("balance after one debit = %d, want 12", got)
	}
	for i := 0; i < 4; i++ {
		if !l.HasSufficient(ctx, id, cost) {
			t.Fatalf("HasSufficient() = false on debit %d", i+2)
		}
		l.Debit(ctx, id, cost)
	}
	if balance, ok := l.Balance(ctx, id); !ok || balance != 0 {
		t.Fatalf("balance after five debits = %d, %v, want 0, true", balance, ok)
	}
	if l.HasSufficient(ctx, id, cost) {
		t.Fatalf("HasSufficient() = true with zero balance")
	}
}

func TestHasSufficientFailsClosedOnUnknownBalance(t *testing.T) {
	l := newTestLedger(nil, nil)
	if l.HasSufficient(context.Background(), domain.VisitorIdentity("ghost"), 1) {
		t.Fatalf("HasSufficient() = true for unknown wallet")
	}
}

func TestDebitAdoptsAuthoritativeProfileBalance(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[string]*domain.Profile{
		"u1": {ID: "u1", Plan: domain.PlanPro, Credits: 50, RenewedAt: time.Now()},
	}}
	l := newTestLedger(profiles, nil)
	id := domain.Identity{ID: "u1", Plan: domain.PlanPro}

	if got := l.Debit(context.Background(), id, 10); got != 40 {
		t.Fatalf("Debit() = %d, want 40", got)
	}
	if profiles.profiles["u1"].Credits != 40 {
		t.Fatalf("persisted credits = %d, want 40", profiles.profiles["u1"].Credits)
	}
}

func TestDebitPersistFailureIsBestEffort(t *testing.T) {
	profiles := &fakeProfiles{
		profiles:  map[string]*domain.Profile{"u1": {ID: "u1", Credits: 50, RenewedAt: time.Now()}},
		updateErr: errors.New("store down"),
	}
	l := newTestLedger(profiles, nil)

	// The locally computed balance is still reported.
	if got := l.Debit(context.Background(), domain.Identity{ID: "u1"}, 10); got != 40 {
		t.Fatalf("Debit() = %d, want 40", got)
	}
	if profiles.profiles["u1"].Credits != 50 {
		t.Fatalf("store balance mutated on failed update")
	}
}

func TestGrantIfStale(t *testing.T) {
	tests := []struct {
		name        string
		age         time.Duration
		wantCredits int
		wantRenewal bool
	}{
		{name: "31 days resets", age: 31 * 24 * time.Hour, wantCredits: 30, wantRenewal: true},
		{name: "29 days untouched", age: 29 * 24 * time.Hour, wantCredits: 2, wantRenewal: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			now := time.Now()
			profiles := &fakeProfiles{profiles: map[string]*domain.Profile{
				"u1": {ID: "u1", Plan: domain.PlanFree, Credits: 2, RenewedAt: now.Add(-tc.age)},
			}}
			l := newTestLedger(profiles, nil)
			l.now = func() time.Time { return now }

			p, err := l.GrantIfStale(context.Background(), profiles.profiles["u1"])
			if err != nil {
				t.Fatalf("GrantIfStale() error: %v", err)
			}
			if p.Credits != tc.wantCredits {
				t.Fatalf("credits = %d, want %d", p.Credits, tc.wantCredits)
			}
			if gotRenewal := profiles.renewals > 0; gotRenewal != tc.wantRenewal {
				t.Fatalf("renewal performed = %v, want %v", gotRenewal, tc.wantRenewal)
			}
			if tc.wantRenewal && !p.RenewedAt.Equal(now) {
				t.Fatalf("RenewedAt = %v, want %v", p.RenewedAt, now)
			}
		})
	}
}

func TestOpenWalletIsStable(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(nil, nil)
	if _, err := l.OpenWallet(ctx, "v1"); err != nil {
		t.Fatalf("OpenWallet() error: %v", err)
	}
	l.Debit(ctx, domain.VisitorIdentity("v1"), 5)

	// Reopening must not re-grant.
	w, err := l.OpenWallet(ctx, "v1")
	if err != nil {
		t.Fatalf("OpenWallet() error: %v", err)
	}
	if w.Credits != 10 {
		t.Fatalf("reopened wallet credits = %d, want 10", w.Credits)
	}
}

func TestCloseWallet(t *testing.T) {
	ctx := context.Background()
	wallets := &fakeWallets{wallets: map[string]*domain.Wallet{}}
	l := newTestLedger(nil, wallets)
	if _, err := l.OpenWallet(ctx, "v1"); err != nil {
		t.Fatalf("OpenWallet() error: %v", err)
	}
	l.CloseWallet(ctx, "v1")
	if _, ok := wallets.wallets["v1"]; ok {
		t.Fatalf("wallet still present after CloseWallet")
	}
}
