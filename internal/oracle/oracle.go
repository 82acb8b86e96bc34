// Package oracle defines the boundary to the external judgment/generation
// capability: a client that turns a (system, user) prompt pair into text, and
// helpers that coerce that text into schema-validated structured output.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Request is one completion request against the oracle.
type Request struct {
	System string
	User   string
}

// Client is the external oracle. Implementations must be deterministic under
// fixed sampling parameters; the pipeline builds no retries on top of them.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// RawResponseError wraps a malformed oracle response. The raw text is carried
// along so callers can log it when debugging a contract violation.
type RawResponseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *RawResponseError) Error() string {
	return fmt.Sprintf("oracle: %s: %v\nraw response:\n%s", e.Reason, e.Err, e.Raw)
}

func (e *RawResponseError) Unwrap() error { return e.Err }

const jsonInstruction = "\n\nIMPORTANT: You must respond with ONLY valid JSON. " +
	"Do not include any markdown code blocks, explanations, or text outside the JSON."

// GenerateJSON sends the prompt pair to the client, extracts the JSON payload
// from the response, validates it against schema, and decodes it into out.
// Any parse or schema failure is fatal for the call and returns a
// *RawResponseError; there is no fallback result.
func GenerateJSON(ctx context.Context, client Client, system, user string, schema *jsonschema.Schema, out any) error {
	raw, err := client.Complete(ctx, Request{System: system, User: user + jsonInstruction})
	if err != nil {
		return fmt.Errorf("oracle call failed: %w", err)
	}

	text := extractJSON(raw)

	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return &RawResponseError{Reason: "response is not valid JSON", Raw: raw, Err: err}
	}

	if err := schema.Validate(value); err != nil {
		return &RawResponseError{Reason: "response does not match schema", Raw: raw, Err: err}
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return &RawResponseError{Reason: "response failed to decode", Raw: raw, Err: err}
	}

	return nil
}

// extractJSON strips a surrounding markdown code fence, if present. Models
// sometimes wrap their JSON despite instructions.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	var body []string
	for _, line := range lines[1:] {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			break
		}
		body = append(body, line)
	}
	return strings.Join(body, "\n")
}
