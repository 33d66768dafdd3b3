// Package main provides gatectl, the CLI for the Gatehouse authentication
// server.
//
// Gatehouse resolves request credentials to local user identities. It
// supports password sign-in, signed session tokens, API keys, bearer tokens
// from an external OAuth/OIDC provider, LDAP directory binds and
// trusted-proxy header assertions.
//
// # Architecture
//
// The server is organized into several packages:
//
//   - pkg/server: HTTP server and routing
//   - pkg/server/endpoints: REST API endpoint handlers
//   - pkg/server/middleware: request authentication middleware
//   - pkg/authn: the credential resolution pipeline
//   - pkg/credentials: credential extraction and verification primitives
//   - pkg/token: session token signing and verification
//   - pkg/provider: external OAuth/OIDC provider integration
//   - pkg/keyset: JWKS fetching and caching
//   - pkg/directory: LDAP directory authentication
//   - pkg/model: database models
//   - pkg/db: database connection utilities
//   - pkg/audit: audit logging
//   - pkg/config: configuration management
//
// # Quick Start
//
//	# Generate a session secret
//	gatectl session-secret generate > session_secret
//	export GATEHOUSE_SESSION_SECRET=$(cat session_secret)
//
//	# Run database migrations
//	gatectl db migrate
//
//	# Create the first admin user
//	gatectl user create --email admin@example.com --role admin
//
//	# Start the server
//	gatectl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - GATEHOUSE_SESSION_SECRET: secret for signing session tokens
//   - GATEHOUSE_CONFIG_PATH: config directory (default: /etc/gatehouse/config)
//   - GATEHOUSE_LOG_LEVEL: log level (debug enables SQL logging)
//   - GATEHOUSE_AUDIT_ENABLED: enable audit logging
//   - AUDIT_DATABASE_URL: optional separate database for audit messages
//   - PORT: server port (default: 8000)
//
// For more information, see https://github.com/gatehouse/gatehouse
package main
