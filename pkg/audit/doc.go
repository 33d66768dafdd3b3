// Package audit provides audit logging for Gatehouse operations.
//
// This package implements structured audit logging for security-relevant
// operations such as authentication attempts, user provisioning, and
// credential lifecycle changes.
//
// # Event Types
//
// The package defines event types for various operations:
//
//   - Authentication events (success/failure, per scheme)
//   - User provisioning events
//   - Session issue and revocation events
//   - API key lifecycle events
//   - Password and role change events
//
// # Usage
//
//	audit.Log(audit.AuthenticateEvent{SubjectID: id, Scheme: "password", Success: true})
//
// Audit events are logged in RFC5424 syslog format suitable for security
// monitoring and compliance requirements.
package audit
