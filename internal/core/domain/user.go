package domain

import (
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Role is a member of the closed set of access roles.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Gender is the optional self-reported gender of a user.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// User models an account owned by the user store.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Gender       *Gender   `json:"gender,omitempty"`
	PasswordHash string    `json:"-"`
	IsBanned     bool      `json:"-"`
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RoleSet returns the user's roles as a set. An empty role list yields the
// base role so every stored account resolves to a non-empty set.
func (u *User) RoleSet() mapset.Set[Role] {
	if len(u.Roles) == 0 {
		return NewRoleSet(RoleUser)
	}
	return NewRoleSet(u.Roles...)
}

// NewRoleSet builds an immutable-by-convention set of roles.
func NewRoleSet(roles ...Role) mapset.Set[Role] {
	return mapset.NewThreadUnsafeSet[Role](roles...)
}

// SortedRoles flattens a role set into a deterministic slice, suitable for
// token claims and JSON.
func SortedRoles(set mapset.Set[Role]) []Role {
	if set == nil {
		return nil
	}
	out := set.ToSlice()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
