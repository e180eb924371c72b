// Package readme reads and rewrites the "## Portfolios" list of a markdown document.
package readme

import (
	"errors"
	"regexp"
	"strings"

	"github.com/thep200/devfolio-sync/internal/model"
)

const SectionHeading = "## Portfolios"

// ErrNoSection means the document has no "## Portfolios" heading line.
var ErrNoSection = errors.New("readme: no \"## Portfolios\" section")

var entryPattern = regexp.MustCompile(`- \[([^\]]+)\]\(([^)]+)\)`)

type Entry struct {
	Username      string
	PortfolioLink string
}

// sectionStart returns the offset right after the heading line, or -1.
func sectionStart(markdown string) int {
	offset := 0
	for offset <= len(markdown) {
		end := strings.IndexByte(markdown[offset:], '\n')
		line := markdown[offset:]
		if end >= 0 {
			line = markdown[offset : offset+end]
		}
		if strings.TrimSpace(line) == SectionHeading {
			if end < 0 {
				return len(markdown)
			}
			return offset + end + 1
		}
		if end < 0 {
			return -1
		}
		offset += end + 1
	}
	return -1
}

// HasSection reports whether markdown has the heading line. Without it an
// empty parse result says nothing about the list.
func HasSection(markdown string) bool {
	return sectionStart(markdown) >= 0
}

// ParsePortfolios returns the entries listed after the heading in document
// order. Lines that are not "- [name](url)" are skipped, as are repeated
// usernames.
func ParsePortfolios(markdown string) []Entry {
	start := sectionStart(markdown)
	if start < 0 {
		return []Entry{}
	}

	entries := []Entry{}
	seen := make(map[string]bool)
	for _, line := range strings.Split(markdown[start:], "\n") {
		m := entryPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		username := strings.TrimSpace(m[1])
		key := model.UsernameKey(username)
		if username == "" || seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, Entry{Username: username, PortfolioLink: strings.TrimSpace(m[2])})
	}
	return entries
}

// RenderPortfolios replaces everything after the heading with one
// "- [username](link)" line per record, in the given order.
func RenderPortfolios(markdown string, records []model.Portfolio) (string, error) {
	start := sectionStart(markdown)
	if start < 0 {
		return "", ErrNoSection
	}

	var b strings.Builder
	b.WriteString(markdown[:start])
	if start == len(markdown) && !strings.HasSuffix(markdown, "\n") {
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	for _, r := range records {
		b.WriteString("- [")
		b.WriteString(r.Username)
		b.WriteString("](")
		b.WriteString(r.PortfolioLink)
		b.WriteString(")\n")
	}
	return b.String(), nil
}
