// Package llmjson decodes JSON out of model completions. Models wrap
// payloads in markdown fences or prose often enough that a single
// strict json.Unmarshal is not a usable contract, so Decode walks a
// fixed fallback chain and tags the result with the pathway that
// produced it. Callers that care about fidelity can reject anything
// past PathwayStrict.
package llmjson

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/wareechai/trio-concierge/agent/contract"
)

// Pathway tags how a payload was recovered from the raw completion.
type Pathway string

const (
	// PathwayStrict: the whole trimmed completion was valid JSON.
	PathwayStrict Pathway = "strict"
	// PathwayFenced: JSON extracted from a markdown code fence.
	PathwayFenced Pathway = "fenced"
	// PathwayHeuristic: JSON carved out between the outermost braces
	// or brackets of an otherwise prose reply.
	PathwayHeuristic Pathway = "heuristic"
)

// ErrNoJSON means no decoding pathway recovered a payload. It wraps
// contract.ErrSchemaViolation, so callers can match either.
var ErrNoJSON = fmt.Errorf("%w: no decodable json in completion", contract.ErrSchemaViolation)

// Result carries the decoded value and the pathway that produced it.
type Result[T any] struct {
	Value   T
	Pathway Pathway
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// Decode runs the strict -> fenced -> heuristic chain over raw.
func Decode[T any](raw string) (Result[T], error) {
	var res Result[T]

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return res, fmt.Errorf("%w: empty completion", ErrNoJSON)
	}

	if err := json.Unmarshal([]byte(trimmed), &res.Value); err == nil {
		res.Pathway = PathwayStrict
		return res, nil
	}

	if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
		inner := strings.TrimSpace(m[1])
		if err := json.Unmarshal([]byte(inner), &res.Value); err == nil {
			res.Pathway = PathwayFenced
			return res, nil
		}
	}

	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(trimmed, pair[0])
		end := strings.LastIndex(trimmed, pair[1])
		if start < 0 || end <= start {
			continue
		}
		carved := trimmed[start : end+1]
		if err := json.Unmarshal([]byte(carved), &res.Value); err == nil {
			res.Pathway = PathwayHeuristic
			return res, nil
		}
	}

	return res, fmt.Errorf("%w: %.80s", ErrNoJSON, trimmed)
}
