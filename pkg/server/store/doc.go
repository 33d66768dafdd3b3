// Package store provides storage abstractions for the Gatehouse server.
//
// This package defines interfaces for database operations, allowing the
// resolution pipeline and the server endpoints to be decoupled from the
// specific database implementation. This enables easier testing with mocks
// and potential support for different storage backends.
//
// # Available Stores
//
//   - UserStore: user lookup, provisioning and credential updates
//   - HealthStore: database connectivity checks
//
// # Usage
//
//	users := gorm.NewUserStore(db)
//	user, err := users.FindByEmail("admin@example.com")
//	if err != nil {
//	    if errors.Is(err, store.ErrNotFound) {
//	        // Handle not found
//	    }
//	}
package store
