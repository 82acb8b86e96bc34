package oracle

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// StubRule maps a substring of the user prompt to a canned response.
type StubRule struct {
	Match    string
	Response string
}

// StubClient is a deterministic in-process oracle for tests. The first rule
// whose Match substring appears in the user prompt wins; Default answers
// everything else.
type StubClient struct {
	Rules   []StubRule
	Default string

	mu    sync.Mutex
	calls []Request
}

// Complete implements [Client].
func (s *StubClient) Complete(_ context.Context, req Request) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	for _, rule := range s.Rules {
		if strings.Contains(req.User, rule.Match) {
			return rule.Response, nil
		}
	}
	if s.Default != "" {
		return s.Default, nil
	}
	return "", fmt.Errorf("stub oracle: no rule matches request")
}

// Calls returns a copy of every request seen so far.
func (s *StubClient) Calls() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many completions were requested.
func (s *StubClient) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
