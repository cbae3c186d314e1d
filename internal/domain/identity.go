package domain

import "time"

// Role enumerates supported account roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Plan enumerates billing plans.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Profile represents an authenticated account. The profile store owns this
// record; the core only reads it and requests credit updates.
type Profile struct {
	ID        string
	Email     string
	Name      string
	Plan      Plan
	Role      Role
	Credits   int
	RenewedAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFree reports whether the profile is on the free plan.
func (p Profile) IsFree() bool {
	return p.Plan == PlanFree
}

// Wallet holds the credit balance of an anonymous visitor. It lives in the
// local wallet store and is destroyed when the visitor signs in.
type Wallet struct {
	VisitorID string    `json:"visitor_id"`
	Credits   int       `json:"credits"`
	GrantedAt time.Time `json:"granted_at"`
}

// Identity is the caller of a session: either an authenticated profile or an
// anonymous visitor. Anonymous identities carry no plan or role.
type Identity struct {
	ID        string
	Anonymous bool
	Plan      Plan
	Role      Role
}

// VisitorIdentity builds the identity for an anonymous visitor id.
func VisitorIdentity(id string) Identity {
	return Identity{ID: id, Anonymous: true, Plan: PlanFree, Role: RoleUser}
}

// ProfileIdentity builds the identity for an authenticated profile.
func ProfileIdentity(p *Profile) Identity {
	return Identity{ID: p.ID, Plan: p.Plan, Role: p.Role}
}

// IsAdmin reports whether the identity may use admin-gated operations.
func (i Identity) IsAdmin() bool {
	return !i.Anonymous && i.Role == RoleAdmin
}

// IsPro reports whether the identity may use pro-gated parameters.
func (i Identity) IsPro() bool {
	return !i.Anonymous && i.Plan == PlanPro
}
