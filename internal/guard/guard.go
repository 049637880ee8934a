// Package guard classifies outbound message bodies before they are
// persisted or delivered, protecting against disclosure of
// patient-identifying data. Check is pure and deterministic: no I/O,
// identical input always yields the identical verdict. It is called from
// the send path as defense in depth and exposed over HTTP so clients can
// give fast feedback while the user is still typing.
package guard

import "regexp"

type Level string

const (
	LevelClean   Level = "clean"
	LevelWarning Level = "warning"
	LevelBlocked Level = "blocked"
)

// Verdict is the guard's classification of one message body. Message is
// user-facing and only set for warning/blocked levels.
type Verdict struct {
	Level   Level  `json:"level"`
	Message string `json:"message,omitempty"`
}

type rule struct {
	re      *regexp.Regexp
	message string
}

// Blocked rules are high-confidence patient identifiers. Any match is a
// hard block that the sender cannot override.
var blockedRules = []rule{
	{
		// CPF: 11 digits, with or without punctuation. Validated by
		// shape, not checksum.
		re:      regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`),
		message: "A mensagem parece conter um CPF. Remova dados que identifiquem o paciente antes de enviar.",
	},
	{
		// CNS: 15 digits, optionally grouped 3-4-4-4.
		re:      regexp.MustCompile(`\b\d{3}[ .]?\d{4}[ .]?\d{4}[ .]?\d{4}\b`),
		message: "A mensagem parece conter um número de Cartão Nacional de Saúde (CNS). Remova dados que identifiquem o paciente antes de enviar.",
	},
	{
		// Phone: a separated 4+4 run alone is too noisy (year ranges,
		// dose intervals), so it only blocks with phone-shaped context:
		// a parenthesized DDD, a +55 prefix, or the mobile ninth digit.
		re:      regexp.MustCompile(`\(\d{2}\)[\s.-]?9?\d{4}[\s.-]?\d{4}\b|\+55[\s.-]?\d{2}[\s.-]?9?\d{4}[\s.-]?\d{4}\b|\b9\d{4}[\s.-]\d{4}\b`),
		message: "A mensagem parece conter um número de telefone. Remova dados de contato do paciente antes de enviar.",
	},
	{
		// Bare 10/11-digit run reads as a phone number (DDD + local).
		re:      regexp.MustCompile(`\b(?:\+?55)?\d{10,11}\b`),
		message: "A mensagem parece conter um número de telefone. Remova dados de contato do paciente antes de enviar.",
	},
}

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// Two or more capitalized words, optionally joined by Portuguese
	// name connectives.
	fullNameRe = regexp.MustCompile(`\b[A-ZÀ-Ú][a-zà-ú]+(?:\s+(?:d[aeo]s?\s+|e\s+)?[A-ZÀ-Ú][a-zà-ú]+)+\b`)
	dateLikeRe = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)
)

// Warning rules are lower-confidence heuristics. The sender may confirm
// and send anyway; the confirmation bypasses the warning tier only.
var warningRules = []rule{
	{
		re:      emailRe,
		message: "A mensagem parece conter um endereço de e-mail. Confirme que não há dados do paciente antes de enviar.",
	},
}

// Check classifies body. Blocked patterns are evaluated before any warning
// pattern and short-circuit on first match, so a body matching both tiers
// always comes back blocked.
func Check(body string) Verdict {
	for _, r := range blockedRules {
		if r.re.MatchString(body) {
			return Verdict{Level: LevelBlocked, Message: r.message}
		}
	}

	for _, r := range warningRules {
		if r.re.MatchString(body) {
			return Verdict{Level: LevelWarning, Message: r.message}
		}
	}

	// A capitalized multi-word name next to a date-like token reads as
	// patient identification (name + admission or birth date).
	if fullNameRe.MatchString(body) && dateLikeRe.MatchString(body) {
		return Verdict{
			Level:   LevelWarning,
			Message: "A mensagem parece conter nome completo e data. Confirme que não há identificação do paciente antes de enviar.",
		}
	}

	return Verdict{Level: LevelClean}
}
