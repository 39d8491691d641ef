// Package internal documents the eventradar server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem rendering, and routing
// - domain: business logic and domain models (users, events, ids)
// - storage: database access, repositories, and migrations (pgx + PostGIS)
// - auth, config, geo, metrics: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
