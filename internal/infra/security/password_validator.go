package security

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// PasswordValidationError is a password policy violation with a stable
// machine-readable code.
type PasswordValidationError struct {
	Code    string
	Message string
}

func (e *PasswordValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func violation(code, message string) error {
	return &PasswordValidationError{Code: code, Message: message}
}

// PasswordRule checks a candidate password against one policy requirement.
type PasswordRule interface {
	Validate(password string) error
}

// PasswordRuleFunc adapts a plain function to the PasswordRule interface.
type PasswordRuleFunc func(password string) error

func (f PasswordRuleFunc) Validate(password string) error { return f(password) }

// PasswordValidator runs rules in order and stops at the first violation.
type PasswordValidator struct {
	rules []PasswordRule
}

// NewPasswordValidator builds a validator from the given rules. The slice is
// copied, so callers may reuse theirs afterwards.
func NewPasswordValidator(rules ...PasswordRule) *PasswordValidator {
	return &PasswordValidator{rules: append([]PasswordRule(nil), rules...)}
}

// Validate reports the first rule the password violates, or nil.
func (v *PasswordValidator) Validate(password string) error {
	if v == nil {
		return errors.New("password validator not configured")
	}
	for _, rule := range v.rules {
		if err := rule.Validate(password); err != nil {
			return err
		}
	}
	return nil
}

// MinLengthRule requires at least min characters, counted as runes so
// multibyte input is not penalized.
func MinLengthRule(min int) PasswordRule {
	return PasswordRuleFunc(func(password string) error {
		if utf8.RuneCountInString(password) < min {
			return violation("min_length", fmt.Sprintf("password must be at least %d characters long", min))
		}
		return nil
	})
}

func classRule(code, message string, match func(rune) bool) PasswordRule {
	return PasswordRuleFunc(func(password string) error {
		for _, r := range password {
			if match(r) {
				return nil
			}
		}
		return violation(code, message)
	})
}

// RequireLetterRule requires at least one unicode letter.
func RequireLetterRule() PasswordRule {
	return classRule("letter", "password must include at least one letter", unicode.IsLetter)
}

// RequireDigitRule requires at least one digit.
func RequireDigitRule() PasswordRule {
	return classRule("digit", "password must include at least one digit", unicode.IsDigit)
}

// RequireDifferentFrom rejects a password equal to comparator, typically the
// account's current password.
func RequireDifferentFrom(comparator string) PasswordRule {
	return PasswordRuleFunc(func(password string) error {
		if password == comparator {
			return violation("different", "new password must be different from current password")
		}
		return nil
	})
}

// RequirePasswordStrengthRule rejects passwords scoring below minScore on the
// zxcvbn scale of 0 to 4. userInputs feed the estimator so passwords derived
// from the username or email score lower. A minScore of zero disables the
// check.
func RequirePasswordStrengthRule(minScore int, userInputs ...string) PasswordRule {
	if minScore > 4 {
		minScore = 4
	}
	return PasswordRuleFunc(func(password string) error {
		if minScore <= 0 {
			return nil
		}
		if zxcvbn.PasswordStrength(password, userInputs).Score >= minScore {
			return nil
		}
		return violation("weak_password", "password is too weak; choose a more complex value")
	})
}
