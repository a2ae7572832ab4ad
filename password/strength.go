package password

import (
	"errors"
	"fmt"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// Policy is the password strength policy. Composition flags gate on
// character classes; entropy is scored on top of them, so a password
// passing every flag can still be rejected as guessable.
type Policy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool

	// MinScore is the minimum zxcvbn score (0..4). Zero means derive it
	// from MinLength: 3 when MinLength >= 12, otherwise 2.
	MinScore int
}

func (p Policy) minScore() int {
	if p.MinScore > 0 {
		return p.MinScore
	}
	if p.MinLength >= 12 {
		return 3
	}
	return 2
}

// Score returns the zxcvbn guessability score of password, 0 (trivial)
// through 4 (strong). userInputs are personal tokens such as the email
// local part and name; matches against them score poorly.
func Score(password string, userInputs ...string) int {
	return zxcvbn.PasswordStrength(password, userInputs).Score
}

// Strength is the full result of a policy evaluation: whether the
// password is acceptable, its guessability score, and one suggestion
// per failed requirement.
type Strength struct {
	Valid       bool
	Score       int
	Suggestions []string
}

// ScoreStrength evaluates password against the policy and reports every
// failed requirement rather than just the first.
func ScoreStrength(password string, p Policy, userInputs ...string) Strength {
	var suggestions []string

	if len(password) < p.MinLength {
		suggestions = append(suggestions, fmt.Sprintf("password must be at least %d characters", p.MinLength))
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	if p.RequireUpper && !hasUpper {
		suggestions = append(suggestions, "password must contain an uppercase letter")
	}
	if p.RequireLower && !hasLower {
		suggestions = append(suggestions, "password must contain a lowercase letter")
	}
	if p.RequireDigit && !hasDigit {
		suggestions = append(suggestions, "password must contain a digit")
	}
	if p.RequireSymbol && !hasSymbol {
		suggestions = append(suggestions, "password must contain a symbol")
	}

	score := Score(password, userInputs...)
	if score < p.minScore() {
		suggestions = append(suggestions, "password is too easy to guess")
	}

	return Strength{
		Valid:       len(suggestions) == 0,
		Score:       score,
		Suggestions: suggestions,
	}
}

// CheckStrength validates password against the policy. The returned
// error names the first failed requirement; nil means the password is
// acceptable.
func CheckStrength(password string, p Policy, userInputs ...string) error {
	result := ScoreStrength(password, p, userInputs...)
	if result.Valid {
		return nil
	}
	return errors.New(result.Suggestions[0])
}
