package models

import "github.com/golang-jwt/jwt/v5"

// Permission is the pre-checked access level attached to a principal by the
// upstream identity service. The core trusts it and performs no authorization
// logic of its own.
type Permission string

const (
	PermissionViewer Permission = "viewer"
	PermissionEditor Permission = "editor"
	PermissionAdmin  Permission = "admin"
	PermissionOwner  Permission = "owner"
)

// Principal is the already-authenticated caller identity injected by the auth
// middleware.
type Principal struct {
	Subject    string
	Email      string
	Permission Permission
}

// AccessClaims are the JWT claims issued by the external identity provider.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role       string `json:"role"`
	Email      string `json:"email"`
	Permission string `json:"permission"`
}
