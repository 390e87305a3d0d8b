package api

import (
	"regexp"
	"time"
)

// Input validation rules, applied before any request reaches the
// services. Rejected input never touches the stores.
var (
	// emailPattern is a pragmatic address check, not full RFC 5322.
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

	// numberPattern accepts 9 to 11 digits.
	numberPattern = regexp.MustCompile(`^[0-9]{9,11}$`)

	// vinPattern is the 17-character VIN alphabet, which excludes I, O, Q.
	vinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
)

// Password length bounds.
const (
	minPasswordLength = 8
	maxPasswordLength = 50
)

// firstVehicleYear is the year of the Benz Patent-Motorwagen, the
// earliest acceptable model year.
const firstVehicleYear = 1886

func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func isValidNumber(number string) bool {
	return numberPattern.MatchString(number)
}

func isValidPassword(password string) bool {
	return len(password) >= minPasswordLength && len(password) <= maxPasswordLength
}

func isValidVIN(vin string) bool {
	return vinPattern.MatchString(vin)
}

func isValidYear(year int) bool {
	return year >= firstVehicleYear && year <= time.Now().Year()
}
