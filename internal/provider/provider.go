// Package provider implements AI suggestion providers: given a topic and its
// path-to-root context, a provider returns a ranked list of related-topic
// candidates. Transport failures and malformed output both surface as
// models.ErrSuggestionProvider so the merger can keep the tree untouched.
package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nodelearn/nodelearn/internal/models"
)

// Breaker configuration.
const (
	breakerFailureThreshold = 5
	breakerCooldown         = 30 * time.Second
)

// Breaker states.
const (
	breakerClosed   = iota // Normal operation.
	breakerOpen            // Fail fast.
	breakerHalfOpen        // Probe with one request.
)

// ErrBreakerOpen is returned when the breaker is rejecting requests without
// calling the provider.
var ErrBreakerOpen = errors.New("suggestion provider circuit breaker is open")

// breaker is a minimal circuit breaker shared by the HTTP-backed providers.
// It fails fast while the upstream is down and probes with a single request
// after the cooldown.
type breaker struct {
	mu            sync.Mutex
	state         int
	failures      int
	lastFailureAt time.Time
}

func (b *breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed:
		return nil
	case breakerOpen:
		if time.Since(b.lastFailureAt) >= breakerCooldown {
			b.state = breakerHalfOpen

			return nil
		}

		return ErrBreakerOpen
	case breakerHalfOpen:
		// Already probing — reject additional requests.
		return ErrBreakerOpen
	}

	return nil
}

func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = breakerClosed
}

func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailureAt = time.Now()

	if b.failures >= breakerFailureThreshold || b.state == breakerHalfOpen {
		b.state = breakerOpen
	}
}

// buildPrompt renders the suggestion prompt. Depth 1 asks for brief,
// tightly-related concepts; depth 2 allows a wider net. The context path
// keeps the provider from re-suggesting ancestors.
func buildPrompt(req models.SuggestionRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Suggest up to %d concepts closely related to the topic %q.\n", req.MaxResults, req.Topic)

	if len(req.ContextPath) > 1 {
		fmt.Fprintf(&b, "The learner reached this topic through the path: %s.\n", strings.Join(req.ContextPath, " > "))
		b.WriteString("Do not repeat any topic from that path.\n")
	}

	if req.Depth >= 2 {
		b.WriteString("Include broader subtopics and applications, with a one-sentence rationale each.\n")
	} else {
		b.WriteString("Prefer directly adjacent concepts with a short rationale each.\n")
	}

	b.WriteString(`Return only a JSON array of objects: [{"topic": "...", "rationale": "..."}], ordered most relevant first.`)

	return b.String()
}

// parseCandidates decodes the provider's JSON candidate list. Markdown code
// fences around the JSON are tolerated, the models routinely add them.
func parseCandidates(text string) ([]models.Candidate, error) {
	raw := strings.TrimSpace(text)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")

	var candidates []models.Candidate
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &candidates); err != nil {
		return nil, fmt.Errorf("%w: malformed candidate list: %v", models.ErrSuggestionProvider, err)
	}

	out := candidates[:0]
	for _, c := range candidates {
		if strings.TrimSpace(c.Topic) != "" {
			out = append(out, c)
		}
	}

	return out, nil
}
