package security

const (
	defaultMinPasswordLength = 8
	defaultMinZxcvbnScore    = 2
)

// DefaultPasswordValidator returns the built-in validator enforcing the
// account password policy: minimum length, at least one letter and one
// digit, and a zxcvbn strength floor.
func DefaultPasswordValidator() *PasswordValidator {
	return NewPasswordValidator(
		MinLengthRule(defaultMinPasswordLength),
		RequireLetterRule(),
		RequireDigitRule(),
		RequirePasswordStrengthRule(defaultMinZxcvbnScore),
	)
}

// PasswordValidatorWithContext includes user-specific inputs (username,
// email) so the strength check penalizes passwords derived from them.
func PasswordValidatorWithContext(userInputs ...string) *PasswordValidator {
	return NewPasswordValidator(
		MinLengthRule(defaultMinPasswordLength),
		RequireLetterRule(),
		RequireDigitRule(),
		RequirePasswordStrengthRule(defaultMinZxcvbnScore, userInputs...),
	)
}
