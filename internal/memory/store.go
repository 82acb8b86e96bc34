// Package memory implements the append-only associative store of past
// analyses: a JSON-file log of issue-code->snippet mappings plus an optional
// similarity index for semantic retrieval.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"

	"github.com/agentqa/mentor/internal/models"
)

// Legacy field names accepted on load and remapped to the current schema.
const (
	legacyIssueCodes      = "common_issues"
	legacyHelpfulSnippets = "useful_prompt_snippets"
)

// Store is the durable memory of past analyses. Entries are append-only;
// individual entries are never mutated or deleted, only bulk-cleared. The
// whole log is rewritten to disk on every append.
type Store struct {
	path   string
	logger *slog.Logger
	index  SimilarityIndex

	mu      sync.Mutex
	entries []models.AnalysisEntry
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for degradation warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithSimilarityIndex attaches a semantic backend. The default is NoopIndex.
func WithSimilarityIndex(index SimilarityIndex) Option {
	return func(s *Store) { s.index = index }
}

// Open loads the store at path. A missing, unreadable, or malformed file
// yields an empty store with a warning — data loss is preferred over a
// construction failure.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		logger: slog.Default(),
		index:  NoopIndex{},
	}
	for _, o := range opts {
		o(s)
	}
	s.entries = s.load()
	return s
}

func (s *Store) load() []models.AnalysisEntry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("memory: could not read store, starting fresh", "path", s.path, "error", err)
		}
		return nil
	}

	var doc struct {
		Analyses []map[string]any `json:"analyses"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("memory: corrupt store, starting fresh", "path", s.path, "error", err)
		return nil
	}

	entries := make([]models.AnalysisEntry, 0, len(doc.Analyses))
	for _, raw := range doc.Analyses {
		if v, ok := raw[legacyIssueCodes]; ok {
			raw["issue_codes"] = v
			delete(raw, legacyIssueCodes)
		}
		if v, ok := raw[legacyHelpfulSnippets]; ok {
			raw["helpful_snippets"] = v
			delete(raw, legacyHelpfulSnippets)
		}

		var entry models.AnalysisEntry
		if err := decodeEntry(raw, &entry); err != nil {
			s.logger.Warn("memory: malformed entry, starting fresh", "path", s.path, "error", err)
			return nil
		}
		entries = append(entries, entry)
	}
	return entries
}

// decodeEntry decodes a raw map into an AnalysisEntry using the json tag
// names, so historical files and current files share one schema definition.
func decodeEntry(raw map[string]any, out *models.AnalysisEntry) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func (s *Store) save() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("memory: create store directory: %w", err)
		}
	}

	doc := struct {
		Analyses []models.AnalysisEntry `json:"analyses"`
	}{Analyses: s.entries}
	if doc.Analyses == nil {
		doc.Analyses = []models.AnalysisEntry{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("memory: marshal store: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("memory: write store: %w", err)
	}
	return nil
}

// AddAnalysis appends one entry and persists the full log synchronously.
// Similarity indexing of the entry's snippets is best-effort: failures are
// logged and do not fail the append.
func (s *Store) AddAnalysis(ctx context.Context, agentName string, issueCodes, helpfulSnippets []string, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, models.AnalysisEntry{
		AgentName:       agentName,
		IssueCodes:      issueCodes,
		HelpfulSnippets: helpfulSnippets,
		SessionID:       sessionID,
	})
	entryID := fmt.Sprintf("entry-%d", len(s.entries)-1)

	if err := s.save(); err != nil {
		return err
	}

	metadata := map[string]string{
		"issue_codes": strings.Join(issueCodes, ","),
		"agent_name":  agentName,
		"session_id":  sessionID,
	}
	for i, snippet := range helpfulSnippets {
		id := fmt.Sprintf("%s-%d", entryID, i)
		if err := s.index.Index(ctx, snippet, id, metadata); err != nil {
			s.logger.Warn("memory: could not index snippet, continuing with JSON storage only",
				"id", id, "error", err)
		}
	}

	return nil
}

// SnippetsForIssues returns, in entry-append order, every distinct snippet
// from entries whose issue-code set intersects the query set. An empty query
// returns nothing.
func (s *Store) SnippetsForIssues(issueCodes []string) []string {
	if len(issueCodes) == 0 {
		return nil
	}

	query := map[string]struct{}{}
	for _, code := range issueCodes {
		query[code] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var snippets []string
	seen := map[string]struct{}{}
	for _, entry := range s.entries {
		if !intersects(entry.IssueCodes, query) {
			continue
		}
		for _, snippet := range entry.HelpfulSnippets {
			if _, ok := seen[snippet]; !ok {
				seen[snippet] = struct{}{}
				snippets = append(snippets, snippet)
			}
		}
	}
	return snippets
}

func intersects(codes []string, query map[string]struct{}) bool {
	for _, code := range codes {
		if _, ok := query[code]; ok {
			return true
		}
	}
	return false
}

// Snippets returns distinct snippets across all entries, most recently added
// entry first, each entry's snippets in their original order. A limit <= 0
// returns everything.
func (s *Store) Snippets(limit int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snippets []string
	seen := map[string]struct{}{}
	for i := len(s.entries) - 1; i >= 0; i-- {
		for _, snippet := range s.entries[i].HelpfulSnippets {
			if _, ok := seen[snippet]; !ok {
				seen[snippet] = struct{}{}
				snippets = append(snippets, snippet)
			}
		}
	}

	if limit > 0 && len(snippets) > limit {
		return snippets[:limit]
	}
	return snippets
}

// FindSimilarSnippets performs best-effort semantic retrieval. It never
// returns an error: an unavailable or failing backend degrades to an empty
// result with a warning.
func (s *Store) FindSimilarSnippets(ctx context.Context, query string, n int) []string {
	docs, err := s.index.Query(ctx, query, n)
	if err != nil {
		s.logger.Warn("memory: similarity query failed", "error", err)
		return nil
	}
	return docs
}

// EntriesForSession returns all entries recorded under the given session id.
func (s *Store) EntriesForSession(sessionID string) []models.AnalysisEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.AnalysisEntry
	for _, entry := range s.entries {
		if entry.SessionID == sessionID {
			out = append(out, entry)
		}
	}
	return out
}

// Count returns the number of stored entries.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear removes all entries and persists the empty log. Bulk clearing is the
// only way entries are ever removed.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return s.save()
}

// EntrySummary is a truncated view of one entry for debugging output.
type EntrySummary struct {
	AgentName       string   `json:"agent_name"`
	IssueCodes      []string `json:"issue_codes"`
	HelpfulSnippets []string `json:"helpful_snippets"`
}

// DebugSummary returns up to max recent entries, most recent first, with
// snippets truncated to roughly 120 characters for display.
func (s *Store) DebugSummary(max int) []EntrySummary {
	if max <= 0 {
		max = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []EntrySummary
	for i := len(s.entries) - 1; i >= 0 && len(out) < max; i-- {
		entry := s.entries[i]
		truncated := make([]string, len(entry.HelpfulSnippets))
		for j, snippet := range entry.HelpfulSnippets {
			if len(snippet) > 120 {
				snippet = snippet[:120] + "..."
			}
			truncated[j] = snippet
		}
		out = append(out, EntrySummary{
			AgentName:       entry.AgentName,
			IssueCodes:      entry.IssueCodes,
			HelpfulSnippets: truncated,
		})
	}
	return out
}
