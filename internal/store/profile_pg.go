// Package store holds the persistence adapters behind the ledger and the
// HTTP handlers: Postgres for authenticated profiles, badger for anonymous
// visitor wallets.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"snapforge/internal/domain"
	"snapforge/internal/infra"
	"snapforge/internal/sqlinline"
)

// ProfileStore reads and writes authenticated account records in Postgres.
type ProfileStore struct {
	db infra.SQLExecutor
}

func NewProfileStore(db infra.SQLExecutor) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Profile(ctx context.Context, id string) (*domain.Profile, error) {
	return s.scanProfile(s.db.QueryRow(ctx, sqlinline.QSelectProfileByID, id))
}

// Upsert creates the profile on first sign-in and refreshes the display name
// on subsequent ones. New accounts start on the free plan with the given
// credit allotment.
func (s *ProfileStore) Upsert(ctx context.Context, email, name string, startingCredits int) (*domain.Profile, error) {
	return s.scanProfile(s.db.QueryRow(ctx, sqlinline.QUpsertProfileByEmail, email, name, startingCredits))
}

func (s *ProfileStore) UpdateCredits(ctx context.Context, id string, credits int) (*domain.Profile, error) {
	return s.scanProfile(s.db.QueryRow(ctx, sqlinline.QSetProfileCredits, id, credits))
}

func (s *ProfileStore) RenewCredits(ctx context.Context, id string, credits int, renewedAt time.Time) (*domain.Profile, error) {
	return s.scanProfile(s.db.QueryRow(ctx, sqlinline.QRenewProfileCredits, id, credits, renewedAt))
}

func (s *ProfileStore) UpdatePlan(ctx context.Context, id string, plan domain.Plan) (*domain.Profile, error) {
	return s.scanProfile(s.db.QueryRow(ctx, sqlinline.QUpdateProfilePlan, id, string(plan)))
}

func (s *ProfileStore) scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.ID, &p.Email, &p.Name, &p.Plan, &p.Role, &p.Credits, &p.RenewedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}
