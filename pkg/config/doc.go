// Package config provides configuration management for Gatehouse.
//
// This package handles loading and validating Gatehouse server
// configuration from environment variables and configuration files.
//
// # Configuration Sources
//
// Configuration is loaded from:
//
//   - Environment variables (primary)
//   - Configuration files (optional)
//
// # Key Configuration Options
//
//   - GATEHOUSE_SESSION_SECRET: Session token signing secret
//   - GATEHOUSE_SESSION_TTL: Session token lifetime expression
//   - GATEHOUSE_ENABLE_AUTH: Credential checking toggle
//   - GATEHOUSE_ENABLE_SIGNUP: Self-service registration toggle
//   - DATABASE_URL: Database connection
//   - PORT: Server listen port
package config
