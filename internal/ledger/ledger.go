// Package ledger is the single source of truth for per-identity credit
// balances. Authenticated balances live in the profile store, which remains
// authoritative; visitor balances are written through to the local wallet
// store immediately.
package ledger

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"snapforge/internal/domain"
)

// ProfileStore is the external, authoritative store for authenticated
// accounts.
type ProfileStore interface {
	Profile(ctx context.Context, id string) (*domain.Profile, error)
	// UpdateCredits persists a new balance and returns the authoritative
	// resulting record.
	UpdateCredits(ctx context.Context, id string, credits int) (*domain.Profile, error)
	// RenewCredits resets the balance and stamps the renewal time.
	RenewCredits(ctx context.Context, id string, credits int, renewedAt time.Time) (*domain.Profile, error)
}

// WalletStore persists anonymous visitor balances.
type WalletStore interface {
	Wallet(ctx context.Context, visitorID string) (*domain.Wallet, error)
	SaveWallet(ctx context.Context, w *domain.Wallet) error
	DeleteWallet(ctx context.Context, visitorID string) error
}

// Config carries the fixed operation costs and grant policy.
type Config struct {
	Costs        domain.CostTable
	VisitorGrant int
	// Allotments maps plans to their monthly credit allotment.
	Allotments map[domain.Plan]int
	// RenewalEvery is the staleness window for GrantIfStale.
	RenewalEvery time.Duration
}

// Ledger tracks and mutates credit balances.
type Ledger struct {
	profiles ProfileStore
	wallets  WalletStore
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time
}

func New(profiles ProfileStore, wallets WalletStore, cfg Config, logger zerolog.Logger) *Ledger {
	if cfg.RenewalEvery <= 0 {
		cfg.RenewalEvery = 30 * 24 * time.Hour
	}
	return &Ledger{
		profiles: profiles,
		wallets:  wallets,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Cost returns the fixed credit cost of op.
func (l *Ledger) Cost(op domain.Operation) int {
	return l.cfg.Costs.Cost(op)
}

// Balance returns the current balance for id. ok is false when the balance
// could not be loaded; callers must treat unknown as insufficient.
func (l *Ledger) Balance(ctx context.Context, id domain.Identity) (balance int, ok bool) {
	if id.Anonymous {
		w, err := l.wallets.Wallet(ctx, id.ID)
		if err != nil {
			return 0, false
		}
		return w.Credits, true
	}
	p, err := l.profiles.Profile(ctx, id.ID)
	if err != nil {
		return 0, false
	}
	return p.Credits, true
}

// HasSufficient reports whether id holds at least amount credits. An unknown
// balance fails closed.
func (l *Ledger) HasSufficient(ctx context.Context, id domain.Identity, amount int) bool {
	balance, ok := l.Balance(ctx, id)
	return ok && balance >= amount
}

// Debit unconditionally subtracts amount and returns the resulting balance.
// For authenticated identities the profile store's returned balance is
// adopted; a persistence failure is logged and the locally computed balance
// returned, never an error. A completed generation is not taken back over a
// bookkeeping failure.
func (l *Ledger) Debit(ctx context.Context, id domain.Identity, amount int) int {
	if id.Anonymous {
		return l.debitWallet(ctx, id.ID, amount)
	}
	return l.debitProfile(ctx, id.ID, amount)
}

func (l *Ledger) debitWallet(ctx context.Context, visitorID string, amount int) int {
	w, err := l.wallets.Wallet(ctx, visitorID)
	if err != nil {
		l.logger.Error().Err(err).Str("visitor_id", visitorID).Msg("ledger: wallet load failed during debit")
		return 0
	}
	w.Credits -= amount
	if err := l.wallets.SaveWallet(ctx, w); err != nil {
		l.logger.Error().Err(err).Str("visitor_id", visitorID).Msg("ledger: wallet debit persist failed")
	}
	return w.Credits
}

func (l *Ledger) debitProfile(ctx context.Context, userID string, amount int) int {
	p, err := l.profiles.Profile(ctx, userID)
	if err != nil {
		l.logger.Error().Err(err).Str("user_id", userID).Msg("ledger: profile load failed during debit")
		return 0
	}
	want := p.Credits - amount
	updated, err := l.profiles.UpdateCredits(ctx, userID, want)
	if err != nil {
		l.logger.Error().Err(err).Str("user_id", userID).Msg("ledger: credit debit persist failed")
		return want
	}
	return updated.Credits
}

// GrantIfStale resets an authenticated balance to the plan's monthly
// allotment when the last renewal is older than the renewal window. It is a
// read-path side effect, invoked whenever the profile is loaded.
func (l *Ledger) GrantIfStale(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if l.now().Sub(p.RenewedAt) <= l.cfg.RenewalEvery {
		return p, nil
	}
	allotment, ok := l.cfg.Allotments[p.Plan]
	if !ok {
		return p, nil
	}
	renewed, err := l.profiles.RenewCredits(ctx, p.ID, allotment, l.now())
	if err != nil {
		l.logger.Error().Err(err).Str("user_id", p.ID).Msg("ledger: credit renewal persist failed")
		return p, nil
	}
	l.logger.Info().Str("user_id", renewed.ID).Int("credits", renewed.Credits).Msg("ledger: monthly credits renewed")
	return renewed, nil
}

// OpenWallet returns the visitor's wallet, creating it with the starting
// grant on first sight.
func (l *Ledger) OpenWallet(ctx context.Context, visitorID string) (*domain.Wallet, error) {
	w, err := l.wallets.Wallet(ctx, visitorID)
	if err == nil {
		return w, nil
	}
	w = &domain.Wallet{VisitorID: visitorID, Credits: l.cfg.VisitorGrant, GrantedAt: l.now()}
	if err := l.wallets.SaveWallet(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// CloseWallet destroys the visitor's wallet, invoked when the visitor signs
// in.
func (l *Ledger) CloseWallet(ctx context.Context, visitorID string) {
	if visitorID == "" {
		return
	}
	if err := l.wallets.DeleteWallet(ctx, visitorID); err != nil {
		l.logger.Warn().Err(err).Str("visitor_id", visitorID).Msg("ledger: wallet delete failed")
	}
}

// Grant adds amount credits to an authenticated balance (coupon redemption,
// plan upgrades). The store's returned balance is adopted.
func (l *Ledger) Grant(ctx context.Context, userID string, amount int) (*domain.Profile, error) {
	p, err := l.profiles.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.profiles.UpdateCredits(ctx, userID, p.Credits+amount)
}
