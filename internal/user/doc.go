// Package user provides account persistence and the user/vehicle
// ownership links.
//
// Email and phone number are each globally unique. Every read joins to
// the roles table so callers always see the role name alongside the
// foreign key, which is what the token claims carry.
package user
