package services

import (
	"fmt"
	"strings"
	"unicode"
)

const MinPasswordLength = 6

// PasswordPolicyError lists every rule a password breaks.
type PasswordPolicyError struct {
	Violations []string
}

func (e *PasswordPolicyError) Error() string {
	return "weak password: " + strings.Join(e.Violations, "; ")
}

// CheckPasswordPolicy requires at least MinPasswordLength characters with a
// digit, a lowercase letter, an uppercase letter and a non-alphanumeric
// character. It returns nil or a *PasswordPolicyError.
func CheckPasswordPolicy(password string) error {
	var hasDigit, hasLower, hasUpper, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			hasSymbol = true
		}
	}

	var violations []string
	if len([]rune(password)) < MinPasswordLength {
		violations = append(violations,
			fmt.Sprintf("password is too short, minimum length is %d", MinPasswordLength))
	}
	if !hasDigit {
		violations = append(violations, "password must contain at least one digit")
	}
	if !hasUpper {
		violations = append(violations, "password must contain at least one uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "password must contain at least one lowercase letter")
	}
	if !hasSymbol {
		violations = append(violations, "password must contain at least one special character")
	}

	if len(violations) > 0 {
		return &PasswordPolicyError{Violations: violations}
	}
	return nil
}
