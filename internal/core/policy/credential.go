// Package policy holds the credential-quality rules applied to local
// registrations. Every function is pure and safe for concurrent use.
package policy

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// Rule identifies a single credential check.
type Rule string

const (
	RuleEmailRequired  Rule = "email_required"
	RuleEmailFormat    Rule = "email_format"
	RulePasswordEmpty  Rule = "password_required"
	RuleMinLength      Rule = "min_length"
	RuleUppercase      Rule = "uppercase"
	RuleLowercase      Rule = "lowercase"
	RuleDigit          Rule = "digit"
	RuleSpecialChar    Rule = "special_char"
	RuleUsernameLength Rule = "username_length"
)

// Violation is one failed rule with its caller-facing message.
type Violation struct {
	Rule    Rule   `json:"rule"`
	Message string `json:"message"`
}

var validate = validator.New()

// ValidateEmailShape reports whether s is a structurally valid address with
// no surrounding whitespace.
func ValidateEmailShape(s string) bool {
	if strings.TrimSpace(s) == "" || strings.TrimSpace(s) != s {
		return false
	}
	return validate.Var(s, "email") == nil
}

// RatePasswordStrength runs every strength rule against password and returns
// one Violation per failed rule. The result is empty iff all rules pass.
func RatePasswordStrength(password string) []Violation {
	if strings.TrimSpace(password) == "" {
		return []Violation{{Rule: RulePasswordEmpty, Message: "Password cannot be empty."}}
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	var out []Violation
	if len([]rune(password)) < MinPasswordLength {
		out = append(out, Violation{RuleMinLength, "Password must be at least 8 characters long."})
	}
	if !hasUpper {
		out = append(out, Violation{RuleUppercase, "Password must contain at least one uppercase letter."})
	}
	if !hasLower {
		out = append(out, Violation{RuleLowercase, "Password must contain at least one lowercase letter."})
	}
	if !hasDigit {
		out = append(out, Violation{RuleDigit, "Password must contain at least one digit."})
	}
	if !hasSpecial {
		out = append(out, Violation{RuleSpecialChar, "Password must contain at least one special character."})
	}
	return out
}

// CheckRegistration validates every registration field and collects all
// violations into a single *ValidationError, or returns nil.
func CheckRegistration(email, password, username string) error {
	var vs []Violation
	switch {
	case strings.TrimSpace(email) == "":
		vs = append(vs, Violation{RuleEmailRequired, "Email is required."})
	case !ValidateEmailShape(email):
		vs = append(vs, Violation{RuleEmailFormat, "Invalid email format."})
	}
	vs = append(vs, RatePasswordStrength(password)...)
	if username != "" {
		if n := len([]rune(strings.TrimSpace(username))); n < 2 || n > 50 {
			vs = append(vs, Violation{RuleUsernameLength, "Username must be between 2 and 50 characters."})
		}
	}
	if len(vs) == 0 {
		return nil
	}
	return &ValidationError{Violations: vs}
}

// ValidationError carries every rule a request broke.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return strings.Join(msgs, " ")
}

// Has reports whether rule r is among the violations.
func (e *ValidationError) Has(r Rule) bool {
	for _, v := range e.Violations {
		if v.Rule == r {
			return true
		}
	}
	return false
}
