// Package server provides the HTTP server for the Gatehouse API.
//
// This package implements the core HTTP server that handles all Gatehouse
// requests. It uses gorilla/mux for routing and provides middleware for
// authentication and request handling.
//
// # Server Setup
//
//	srv := server.NewServer(users, pipeline, idp, cfg, db, host, port)
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Components
//
// The Server struct holds:
//
//   - Users: the user store
//   - Pipeline: the identity resolution pipeline
//   - Provider: the external identity provider verifier, if configured
//   - Config: the loaded configuration
//   - Router: HTTP request router
//   - DB: Database connection
//
// # Endpoints
//
// Endpoints are registered via the endpoints subpackage:
//
//	endpoints.RegisterAll(srv)
//
// This registers:
//
//   - /signup, /signin, /signout - password sessions
//   - /login/directory - LDAP login
//   - /login/provider, /login/provider/callback - external IdP sign-in
//   - /whoami - identity introspection
//   - /api-key - personal API key lifecycle
//   - /password, /profile - self-service updates
//   - /users - admin user management
//   - /, /health - status and connectivity
package server
