package logger

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Sanitizer masks credentials in log output.
//
// Limitation: SanitizeArgs only masks values whose key looks sensitive
// (token, password, ...). A credential hidden inside the value of a
// non-sensitive key (for example a URL query string) is only caught by
// the pattern rules.
type Sanitizer struct {
	mu       sync.RWMutex
	patterns []SanitizeRule
}

// SanitizeRule is a single masking rule
type SanitizeRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// NewSanitizer creates a sanitizer with the default rules
func NewSanitizer() *Sanitizer {
	return &Sanitizer{patterns: defaultSanitizeRules()}
}

func defaultSanitizeRules() []SanitizeRule {
	return []SanitizeRule{
		// Auth headers and tokens
		{regexp.MustCompile(`(?i)authorization:\s*\S+\s+\S+`), "authorization: ***"},
		{regexp.MustCompile(`(?i)basic\s+[A-Za-z0-9+/=]{8,}`), "basic ***"},
		{regexp.MustCompile(`(?i)bearer\s+\S+`), "bearer ***"},
		{regexp.MustCompile(`(?i)token=\S+`), "token=***"},
		{regexp.MustCompile(`(?i)api[_-]?token=\S+`), "api_token=***"},
		{regexp.MustCompile(`(?i)password=\S+`), "password=***"},

		// Home directories
		{regexp.MustCompile(`/home/[^/\s]+`), "/home/***"},
		{regexp.MustCompile(`/Users/[^/\s]+`), "/Users/***"},

		// Partial email masking
		{regexp.MustCompile(`([a-zA-Z0-9._%+-]{1,3})[a-zA-Z0-9._%+-]*@`), "$1***@"},
	}
}

// Sanitize applies all pattern rules to a string
func (s *Sanitizer) Sanitize(input string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := input
	for _, rule := range s.patterns {
		result = rule.Pattern.ReplaceAllString(result, rule.Replacement)
	}
	return result
}

// SanitizeArgs masks values of sensitive keys in key-value argument pairs
func (s *Sanitizer) SanitizeArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}

	result := make([]any, len(args))
	copy(result, args)

	for i := 0; i < len(result)-1; i += 2 {
		key, ok := result[i].(string)
		if !ok || !s.isSensitiveKey(key) {
			continue
		}
		switch v := result[i+1].(type) {
		case string:
			result[i+1] = maskValue(v)
		case error:
			result[i+1] = maskValue(v.Error())
		}
	}
	return result
}

func (s *Sanitizer) isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sk := range []string{
		"password", "token", "secret", "api_key", "apikey", "credential", "auth",
	} {
		if strings.Contains(lower, sk) {
			return true
		}
	}
	return false
}

// maskValue keeps at most the first and last character
func maskValue(value string) string {
	if len(value) <= 2 {
		return "***"
	}
	if len(value) <= 8 {
		return fmt.Sprintf("%s***", string(value[0]))
	}
	return fmt.Sprintf("%s***%s", string(value[0]), string(value[len(value)-1]))
}

// AddRule registers an additional masking rule
func (s *Sanitizer) AddRule(pattern string, replacement string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}
	s.patterns = append(s.patterns, SanitizeRule{Pattern: re, Replacement: replacement})
	return nil
}
