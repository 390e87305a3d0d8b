// Package vehicle provides the vehicle registry.
//
// Vehicles are identified by VIN, which is globally unique. Ownership
// links to users live in the user package (user_vehicles table) so this
// package stays free of account concerns.
package vehicle
