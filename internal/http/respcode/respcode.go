// Package respcode implements the machine-parseable response code scheme
// shared by every endpoint.
//
// A response code is the concatenation of three independent segments:
//
//	status(3) + scenario(2) + case(2)
//
// e.g. 2001300 is a successful registration and 4001303 is a registration
// rejected because the email is already taken. Scenario and Case are closed
// enumerations mapped to fixed two-digit strings; the code itself is always
// computed from the triple and never stored.
package respcode

import (
	"fmt"
	"net/http"
)

// Scenario identifies the business operation a response belongs to.
type Scenario int

const (
	// ScenarioIndex is the default flow (fallback routes, health).
	ScenarioIndex Scenario = iota
	// ScenarioRegister is POST /account/register.
	ScenarioRegister
	// ScenarioLogin is POST /account/login.
	ScenarioLogin
)

// Code returns the two-digit scenario segment.
func (s Scenario) Code() string {
	switch s {
	case ScenarioIndex:
		return "00"
	case ScenarioRegister:
		return "13"
	case ScenarioLogin:
		return "14"
	default:
		return "00"
	}
}

func (s Scenario) String() string {
	switch s {
	case ScenarioIndex:
		return "index"
	case ScenarioRegister:
		return "register"
	case ScenarioLogin:
		return "login"
	default:
		return fmt.Sprintf("scenario(%d)", int(s))
	}
}

// Case identifies the outcome variant within a scenario.
type Case int

const (
	// CaseGeneral is the success case and the generic server-side failure case.
	CaseGeneral Case = iota
	// CaseInvalidRequest covers framing errors, missing mandatory fields and
	// malformed field formats.
	CaseInvalidRequest
	// CaseEmailRegistered is a registration for an email that already exists.
	CaseEmailRegistered
	// CaseInvalidCredentials is a login whose email/password pair does not match.
	CaseInvalidCredentials
	// CaseInvalidPassword is a password that fails the complexity policy.
	CaseInvalidPassword
)

// Code returns the two-digit case segment.
func (c Case) Code() string {
	switch c {
	case CaseGeneral:
		return "00"
	case CaseInvalidRequest:
		return "01"
	case CaseEmailRegistered:
		return "03"
	case CaseInvalidCredentials:
		return "04"
	case CaseInvalidPassword:
		return "06"
	default:
		return "00"
	}
}

func (c Case) String() string {
	switch c {
	case CaseGeneral:
		return "general"
	case CaseInvalidRequest:
		return "invalid_request"
	case CaseEmailRegistered:
		return "email_registered"
	case CaseInvalidCredentials:
		return "invalid_credentials"
	case CaseInvalidPassword:
		return "invalid_password"
	default:
		return fmt.Sprintf("case(%d)", int(c))
	}
}

// Scenarios lists every Scenario member.
func Scenarios() []Scenario {
	return []Scenario{ScenarioIndex, ScenarioRegister, ScenarioLogin}
}

// Cases lists every Case member.
func Cases() []Case {
	return []Case{CaseGeneral, CaseInvalidRequest, CaseEmailRegistered, CaseInvalidCredentials, CaseInvalidPassword}
}

// NormalizeStatus returns status when it is a valid three-digit HTTP status
// and 500 otherwise.
func NormalizeStatus(status int) int {
	if status < 100 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

// Compose builds the seven-character response code for the triple.
func Compose(status int, s Scenario, c Case) string {
	return fmt.Sprintf("%03d%s%s", NormalizeStatus(status), s.Code(), c.Code())
}

// Verify checks that every member of each axis maps to a distinct two-digit
// code. It is run at startup; a failure means the tables above were edited
// inconsistently.
func Verify() error {
	seen := make(map[string]Scenario, len(Scenarios()))
	for _, s := range Scenarios() {
		code := s.Code()
		if !twoDigits(code) {
			return fmt.Errorf("scenario %s: code %q is not two digits", s, code)
		}
		if prev, dup := seen[code]; dup {
			return fmt.Errorf("scenario code %q shared by %s and %s", code, prev, s)
		}
		seen[code] = s
	}

	seenCase := make(map[string]Case, len(Cases()))
	for _, c := range Cases() {
		code := c.Code()
		if !twoDigits(code) {
			return fmt.Errorf("case %s: code %q is not two digits", c, code)
		}
		if prev, dup := seenCase[code]; dup {
			return fmt.Errorf("case code %q shared by %s and %s", code, prev, c)
		}
		seenCase[code] = c
	}
	return nil
}

func twoDigits(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}
