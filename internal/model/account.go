package model

import "time"

// Role is an account's authorization level.
type Role string

const (
	RoleMember        Role = "MEMBER"
	RoleSupport       Role = "SUPPORT"
	RoleAdministrator Role = "ADMINISTRATOR"
)

// Account is a login identity. Password hashing and session issuance are
// handled upstream of this package; this struct is the shape the core
// reads once a session token has resolved to an account.
type Account struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	AuthToken    string    `db:"auth_token" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Profile is an account's 1:1 public identity.
type Profile struct {
	AccountID string `db:"account_id" json:"accountId"`
	Username  string `db:"username" json:"username"`
	Avatar    string `db:"avatar" json:"avatar"`
}

// Identity bundles an account with its profile, the unit the auth
// resolver hands back to callers.
type Identity struct {
	Account Account
	Profile Profile
}

func (i Identity) IsAdministrator() bool {
	return i.Account.Role == RoleAdministrator
}
