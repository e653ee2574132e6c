// Package parser extracts seed topics from uploaded documents. It handles
// plain text and markdown; headings and short prominent lines become
// candidate seeds for bootstrapping a session.
package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/nodelearn/nodelearn/internal/models"
)

// maxSeeds caps how many seed topics one document can contribute.
const maxSeeds = 10

// maxSeedLen drops lines too long to be a topic name.
const maxSeedLen = 80

// ErrUnsupportedMIME wraps models.ErrUnsupportedDocument with the offending
// mime type.
func ErrUnsupportedMIME(mimeType string) error {
	return fmt.Errorf("%w: %q (want text/plain or text/markdown)", models.ErrUnsupportedDocument, mimeType)
}

// ExtractSeeds returns candidate seed topics from the document, first
// occurrence first. Markdown headings rank before prominent body lines.
func ExtractSeeds(document []byte, mimeType string) ([]string, error) {
	base := mimeType
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSpace(strings.ToLower(base))

	switch base {
	case "text/plain", "text/markdown", "text/x-markdown":
	default:
		return nil, ErrUnsupportedMIME(mimeType)
	}

	var headings, lines []string

	scanner := bufio.NewScanner(bytes.NewReader(document))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			heading := strings.TrimSpace(strings.TrimLeft(line, "#"))
			if heading != "" && len(heading) <= maxSeedLen {
				headings = append(headings, heading)
			}

			continue
		}

		// A short standalone line with no terminal punctuation reads like
		// a title rather than prose.
		if len(line) <= maxSeedLen && !strings.ContainsAny(string(line[len(line)-1]), ".,;:!?") {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	seeds := dedupe(append(headings, lines...))
	if len(seeds) > maxSeeds {
		seeds = seeds[:maxSeeds]
	}

	return seeds, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]

	for _, s := range in {
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, s)
	}

	return out
}
