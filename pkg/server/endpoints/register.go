package endpoints

import (
	"github.com/gatehouse/gatehouse/pkg/credentials"
	"github.com/gatehouse/gatehouse/pkg/server"
	"github.com/gatehouse/gatehouse/pkg/server/middleware"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	auth := middleware.NewAuthenticator(srv.Pipeline, extractOptions(srv))

	RegisterStatusEndpoints(srv)
	RegisterSessionEndpoints(srv, auth)
	RegisterDirectoryEndpoints(srv)
	RegisterProviderEndpoints(srv)
	RegisterWhoamiEndpoint(srv, auth)
	RegisterAPIKeyEndpoints(srv, auth)
	RegisterPasswordEndpoints(srv, auth)
	RegisterUsersEndpoints(srv, auth)
}

// extractOptions maps the deployment config onto credential extraction.
// Trusted headers are only honored when explicitly configured.
func extractOptions(srv *server.Server) credentials.ExtractOptions {
	opts := credentials.ExtractOptions{}
	if srv.Config.TrustedHeaderEnabled() {
		opts.TrustedEmailHeader = srv.Config.TrustedEmailHeader
		opts.TrustedNameHeader = srv.Config.TrustedNameHeader
	}
	return opts
}
