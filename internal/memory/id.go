package memory

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// generateID computes the 8-hex-char deterministic digest of title+":"+content
// (spec §3/§4.1). Stable identity for idempotent writes.
func generateID(title, content string) string {
	sum := sha256.Sum256([]byte(title + ":" + content))
	return hex.EncodeToString(sum[:])[:8]
}

var slugNonWord = regexp.MustCompile(`[^\w\s-]`)
var slugWhitespace = regexp.MustCompile(`[\s_]+`)

// slugify lowercases the title, strips everything but alphanumerics,
// hyphens and underscores, collapses whitespace runs to a single hyphen,
// and truncates to 50 chars — ported from hermitcrab's _slugify.
func slugify(title string) string {
	s := strings.ToLower(title)
	s = slugNonWord.ReplaceAllString(s, "")
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	s = strings.Trim(s, "-")
	if s == "" {
		s = "untitled"
	}
	return s
}

// generateFilename builds {YYYY-MM-DDTHH-MM-SS}-{12-hex random}-{category}-{slug}.md
func generateFilename(now time.Time, category Category, title string) string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%s-%s-%s-%s.md",
		now.UTC().Format(timeLayout),
		hex.EncodeToString(buf),
		category,
		slugify(title),
	)
}
