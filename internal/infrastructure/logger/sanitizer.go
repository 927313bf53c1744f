package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
)

var (
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`)
)

// Sanitizer strips personal data and credentials from text before it is logged.
type Sanitizer struct {
	salt string
}

// NewSanitizer creates a Sanitizer whose hashes are salted with salt.
func NewSanitizer(salt string) *Sanitizer {
	return &Sanitizer{salt: salt}
}

// Text hashes email addresses and redacts bearer tokens in input.
func (s *Sanitizer) Text(input string) string {
	result := emailPattern.ReplaceAllStringFunc(input, func(match string) string {
		return fmt.Sprintf("[EMAIL:%s]", s.hash(match))
	})
	return bearerPattern.ReplaceAllString(result, "Bearer [REDACTED]")
}

// Email returns a short stable hash of an email address.
func (s *Sanitizer) Email(email string) string {
	if email == "" {
		return ""
	}
	return s.hash(email)
}

func (s *Sanitizer) hash(data string) string {
	h := sha256.New()
	h.Write([]byte(data + s.salt))
	return hex.EncodeToString(h.Sum(nil))[:8]
}
