// Package role defines the authorisation tiers and their persistence.
//
// Three roles are seeded at startup (ADMIN, USER, MASTER) and referenced
// by JWT claims and the route allow-lists. Admins can create additional
// roles through the CRUD endpoints, but access checks only recognise the
// seeded names.
package role
