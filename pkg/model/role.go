package model

//go:generate go run github.com/dmarkham/enumer -type Role -trimprefix Role -transform lower -json -sql -output role.gen.go

// Role is the privilege level of a user. New accounts default to
// RolePending until an admin approves them, except for the very first
// account in a deployment, which is granted RoleAdmin.
type Role int

const (
	RolePending Role = iota
	RoleUser
	RoleAdmin
)

// Verified reports whether the role may access non-admin resources.
func (r Role) Verified() bool {
	return r == RoleUser || r == RoleAdmin
}
