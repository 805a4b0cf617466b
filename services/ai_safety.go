package services

import (
	"regexp"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"

	"golang.org/x/text/unicode/norm"
)

// AISafetyService sanitizes untrusted text, flags known prompt-injection
// phrasing, and redacts PII from anything bound for the LLM provider or a
// log sink. The jailbreak list is defense in depth, not a complete defense:
// the structural guarantee lives in the prompt assembly (prompt.go), which
// keeps user data out of the instruction block entirely.
type AISafetyService struct {
	context.DefaultService
}

const AI_SAFETY_SVC = "ai_safety_svc"

func (svc AISafetyService) Id() string {
	return AI_SAFETY_SVC
}

// Known jailbreak/leak phrasings, matched case-insensitively. "simule" and
// "você agora é" cover the common Portuguese role-override openers.
var jailbreakExprs = []string{
	`ignore previous instructions`,
	`ignore the above`,
	`system prompt`,
	`reveal your instructions`,
	`simule`,
	`dan mode`,
	`do anything now`,
	`você agora é`,
}

var jailbreakPatterns = compileJailbreakPatterns()

func compileJailbreakPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(jailbreakExprs))
	for _, expr := range jailbreakExprs {
		patterns = append(patterns, regexp.MustCompile(`(?i)`+expr))
	}
	return patterns
}

func (svc *AISafetyService) Start() error {
	return nil
}

// ==================== INPUT SANITIZATION ====================

// SanitizeInput normalizes to NFC, strips control characters and invisible
// code points commonly used to defeat keyword filters, and trims
// surrounding whitespace.
func (svc *AISafetyService) SanitizeInput(text string) string {
	if text == "" {
		return ""
	}

	clean := norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		if isInvisibleRune(r) {
			continue
		}
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}

// isInvisibleRune covers U+0000–U+0008, U+000B–U+001F, U+007F–U+009F,
// U+200B–U+200D (zero-width) and U+FEFF (BOM).
func isInvisibleRune(r rune) bool {
	switch {
	case r <= 0x0008:
		return true
	case r >= 0x000B && r <= 0x001F:
		return true
	case r >= 0x007F && r <= 0x009F:
		return true
	case r >= 0x200B && r <= 0x200D:
		return true
	case r == 0xFEFF:
		return true
	}
	return false
}

// DetectJailbreak flags inputs matching known injection phrasing. A match
// means reject or escalate before the text reaches prompt construction.
func (svc *AISafetyService) DetectJailbreak(text string) bool {
	if text == "" {
		return false
	}
	for _, pattern := range jailbreakPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// ==================== PII REDACTION ====================

var (
	cpfRegex   = regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`)
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	// No leading \b: it would fail to assert before "(" in "(11) 91234-5678".
	phoneRegex = regexp.MustCompile(`(\+?55\s?)?\(?\d{2}\)?\s?\d{4,5}-?\d{4}\b`)
)

// RedactPII masks tax IDs, emails and phone numbers in free text. Required
// before forwarding user text to the LLM provider and before logging any
// request/response payload.
func (svc *AISafetyService) RedactPII(text string) string {
	if text == "" {
		return ""
	}

	// Order matters: CPF first so its digit groups are consumed before the
	// looser phone pattern can match them.
	clean := cpfRegex.ReplaceAllStringFunc(text, func(match string) string {
		return match[:3] + ".***.***-**"
	})

	clean = emailRegex.ReplaceAllStringFunc(clean, func(match string) string {
		parts := strings.SplitN(match, "@", 2)
		local := parts[0]
		if len(local) > 2 {
			local = local[:2]
		}
		return local + "***@" + parts[1]
	})

	clean = phoneRegex.ReplaceAllString(clean, "[PHONE-REDACTED]")

	return clean
}

// RedactPIIValue stringifies structured payloads (request bodies, tool
// arguments) before redaction so logs never carry raw PII.
func (svc *AISafetyService) RedactPIIValue(value interface{}) string {
	if value == nil {
		return ""
	}

	if text, ok := value.(string); ok {
		return svc.RedactPII(text)
	}

	raw, err := sonic.MarshalString(value)
	if err != nil {
		return "[Unable to stringify object]"
	}
	return svc.RedactPII(raw)
}
