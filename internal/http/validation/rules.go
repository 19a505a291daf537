package validation

import (
	"fmt"
	"regexp"

	"github.com/tbourn/go-account-backend/internal/http/respcode"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// minPasswordClasses is how many of the four character classes must appear.
const minPasswordClasses = 3

var (
	emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	upperRE    = regexp.MustCompile(`[A-Z]`)
	lowerRE    = regexp.MustCompile(`[a-z]`)
	digitRE    = regexp.MustCompile(`[0-9]`)
	nonAlnumRE = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// ValidEmail reports whether s has the local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailRE.MatchString(s)
}

// CheckEmail returns a format error for an email that does not match
// ValidEmail.
func CheckEmail(s respcode.Scenario, email string) *respcode.HTTPError {
	if ValidEmail(email) {
		return nil
	}
	return InvalidFormat(s, "email", "not a valid email address")
}

// CheckPassword enforces the password policy: at least MinPasswordLength
// bytes and at least three of uppercase, lowercase, digit and
// non-alphanumeric characters.
//
// When too few classes are present the message names one missing class.
// Which one is unspecified.
func CheckPassword(s respcode.Scenario, password string) *respcode.HTTPError {
	if len(password) < MinPasswordLength {
		msg := fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
		return respcode.BadRequest(s, respcode.CaseInvalidPassword, msg, msg)
	}

	classes := map[string]bool{
		"uppercase":        upperRE.MatchString(password),
		"lowercase":        lowerRE.MatchString(password),
		"numeric":          digitRE.MatchString(password),
		"non-alphanumeric": nonAlnumRE.MatchString(password),
	}

	matched := 0
	missing := ""
	for name, ok := range classes {
		if ok {
			matched++
		} else {
			missing = name
		}
	}
	if matched >= minPasswordClasses {
		return nil
	}

	msg := "Password does not meet enough complexity requirements. Missing: " + missing
	return respcode.BadRequest(s, respcode.CaseInvalidPassword, msg, msg)
}
