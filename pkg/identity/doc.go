// Package identity provides authenticated identity management for Gatehouse
// requests.
//
// This package separates the concept of an authenticated identity from the
// raw credential resolution. An Identity combines the resolved user record
// with request-specific context (credential scheme, remote IP).
//
// # Basic Usage
//
//	// Create identity from a resolution outcome
//	id := &identity.Identity{User: outcome.User}
//
//	// Add request context
//	id.WithScheme("session").WithRemoteIP(clientIP)
//
//	// Store in request context
//	ctx = identity.Set(ctx, id)
//
//	// Retrieve from context
//	id, ok := identity.Get(ctx)
//
// # Identity vs User
//
// The authn package resolves credentials to a user record. The identity
// package builds on that to provide the richer per-request view the
// middleware and endpoints consume: who the caller is, how they proved it,
// and where the request came from.
package identity
