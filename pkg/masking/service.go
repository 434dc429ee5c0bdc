// Package masking redacts secrets from research queries and report text
// before they are logged or persisted in a checkpoint.
package masking

import (
	"log/slog"
	"regexp"
)

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// builtinPatterns redacts common secret shapes that might leak into a query,
// a scraped excerpt, or a draft report (API keys, bearer tokens, AWS keys).
var builtinPatterns = map[string]string{
	"api_key":    `(?i)(api[_-]?key|secret[_-]?key)\s*[:=]\s*['"]?[A-Za-z0-9_\-]{16,}['"]?`,
	"bearer":     `(?i)bearer\s+[A-Za-z0-9_\-\.]{16,}`,
	"aws_key":    `AKIA[0-9A-Z]{16}`,
	"private_key": `-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`,
}

// Service applies regex-based redaction. Thread-safe and stateless aside
// from its compiled patterns, created once at startup.
type Service struct {
	patterns []*CompiledPattern
}

// NewService compiles the built-in patterns. Invalid patterns are logged
// and skipped rather than failing construction.
func NewService() *Service {
	s := &Service{}
	for name, pattern := range builtinPatterns {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			slog.Error("failed to compile masking pattern, skipping", "pattern", name, "error", err)
			continue
		}
		s.patterns = append(s.patterns, &CompiledPattern{
			Name:        name,
			Regex:       compiled,
			Replacement: "[REDACTED:" + name + "]",
		})
	}
	return s
}

// Redact applies every compiled pattern in sequence and returns the result.
// Fails open: content that cannot be safely processed is returned unchanged
// rather than dropped, since this redacts log/report text, not secrets at
// rest.
func (s *Service) Redact(content string) string {
	if content == "" {
		return content
	}
	masked := content
	for _, p := range s.patterns {
		masked = p.Regex.ReplaceAllString(masked, p.Replacement)
	}
	return masked
}
