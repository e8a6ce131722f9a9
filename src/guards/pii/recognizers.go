package pii

import "regexp"

// EntityType identifies one of the built-in recognisers (spec §4.7).
type EntityType string

const (
	EntityEmail      EntityType = "EMAIL_ADDRESS"
	EntityPhone      EntityType = "PHONE_NUMBER"
	EntitySSN        EntityType = "SSN"
	EntityCreditCard EntityType = "CREDIT_CARD"
	EntityCASIN      EntityType = "CA_SIN"
	EntityURL        EntityType = "URL"
)

var allEntities = []EntityType{EntityEmail, EntityPhone, EntitySSN, EntityCreditCard, EntityCASIN, EntityURL}

// Span is one recognised entity within a scanned string (spec §4.7).
type Span struct {
	EntityType EntityType `json:"entity_type"`
	Start      int        `json:"start"`
	End        int        `json:"end"`
	Score      float64    `json:"score"`
}

// recogniser finds every non-overlapping regex match of its own pattern
// within s, applying a fixed confidence score, then an optional validator
// that can reject false positives (e.g. a Luhn check) by returning false.
type recogniser struct {
	entity    EntityType
	pattern   *regexp.Regexp
	score     float64
	validator func(match string) bool
}

func (r recogniser) find(s string) []Span {
	var spans []Span
	for _, loc := range r.pattern.FindAllStringIndex(s, -1) {
		match := s[loc[0]:loc[1]]
		if r.validator != nil && !r.validator(match) {
			continue
		}
		spans = append(spans, Span{EntityType: r.entity, Start: loc[0], End: loc[1], Score: r.score})
	}
	return spans
}

// builtinRecognisers is the minimum recogniser set from spec §4.7. Patterns
// are pragmatic subsets, not full RFC grammars, matching the teacher's
// sanitizer scanners' own "pragmatic subset" regex style.
var builtinRecognisers = map[EntityType]recogniser{
	EntityEmail: {
		entity:  EntityEmail,
		pattern: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		score:   0.85,
	},
	EntityPhone: {
		entity:  EntityPhone,
		pattern: regexp.MustCompile(`(?:\+?1[\s.\-]?)?\(?[2-9]\d{2}\)?[\s.\-]?[2-9]\d{2}[\s.\-]?\d{4}`),
		score:   0.6,
	},
	EntitySSN: {
		entity:    EntitySSN,
		pattern:   regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		score:     0.85,
		validator: validSSN,
	},
	EntityCreditCard: {
		entity:    EntityCreditCard,
		pattern:   regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`),
		score:     0.9,
		validator: validLuhn,
	},
	EntityCASIN: {
		entity:    EntityCASIN,
		pattern:   regexp.MustCompile(`\b[1-9]\d{2}-\d{3}-\d{3}\b`),
		score:     0.75,
		validator: func(string) bool { return true },
	},
	EntityURL: {
		entity:  EntityURL,
		pattern: regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`),
		score:   0.5,
	},
}

// validSSN rejects area codes reserved by spec §4.7 (000, 666, 9xx).
func validSSN(match string) bool {
	if len(match) < 3 {
		return false
	}
	area := match[0:3]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	return true
}

// validLuhn implements the Luhn checksum used to validate candidate credit
// card numbers (spec §4.7).
func validLuhn(match string) bool {
	digits := make([]int, 0, len(match))
	for _, r := range match {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
