package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/scriptreel/editor/internal/domain/entities"
	"github.com/scriptreel/editor/internal/infrastructure/cache"
)

type stubClient struct {
	content string
	err     error
	prompt  string
}

func (s *stubClient) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.content, s.err
}

func segs(ids ...string) []*entities.Segment {
	out := make([]*entities.Segment, 0, len(ids))
	for _, id := range ids {
		s := entities.NewSegment("segment "+id, 3)
		s.ID = id
		out = append(out, s)
	}
	return out
}

const validResponse = `{
	"operation_scope": "adjacent_segments",
	"affected_segment_ids": ["s2", "s3"],
	"requires_user_choice": true,
	"voice_continuity_impact": "medium",
	"narrative_coherence_impact": "low",
	"timeline_recalculation_needed": true,
	"estimated_credits_range": {"min": 5, "max": 20},
	"recommended_strategies": [
		{
			"strategy_id": "smart",
			"name": "Smart regeneration",
			"description": "Regenerate edited segment plus neighbours",
			"credits_required": 12,
			"processing_time_seconds": 90,
			"quality_impact": "minor",
			"preserves_customizations": true,
			"technical_details": "voice crossfade at boundaries"
		},
		{
			"strategy_id": "full",
			"name": "Full regeneration",
			"description": "Regenerate everything",
			"credits_required": 40,
			"processing_time_seconds": 300,
			"quality_impact": "none",
			"preserves_customizations": false,
			"technical_details": ""
		}
	],
	"reasoning": "the new text changes the surrounding narration"
}`

func TestAnalyzeAddition_ValidResponse(t *testing.T) {
	client := &stubClient{content: validResponse}
	g := NewGateway(client, nil, nil, 5)

	afterID := "s1"
	res := g.AnalyzeAddition(context.Background(), segs("s1", "s2", "s3"), &afterID, "Hello world")

	if res.Scope != entities.ScopeAdjacentSegments {
		t.Fatalf("scope = %s", res.Scope)
	}
	if !res.RequiresUserChoice {
		t.Fatalf("expected requires_user_choice")
	}
	if len(res.Strategies) != 2 {
		t.Fatalf("expected 2 strategies, got %d", len(res.Strategies))
	}
	if res.RecommendedStrategyID != "smart" {
		t.Fatalf("recommendation must be the first ranked strategy, got %s", res.RecommendedStrategyID)
	}
	if res.Recommended() == nil || res.Recommended().ID != "smart" {
		t.Fatalf("recommended strategy not resolvable")
	}
	if !strings.Contains(client.prompt, "Hello world") {
		t.Fatalf("prompt missing edit text")
	}
}

func TestAnalyzeAddition_MarkdownFencedResponse(t *testing.T) {
	client := &stubClient{content: "```json\n" + validResponse + "\n```"}
	g := NewGateway(client, nil, nil, 5)

	res := g.AnalyzeAddition(context.Background(), segs("s1"), nil, "tail")
	if res.Scope != entities.ScopeAdjacentSegments {
		t.Fatalf("fenced response not parsed, scope = %s", res.Scope)
	}
}

func TestAnalyzeAddition_FallbackOnClientError(t *testing.T) {
	client := &stubClient{err: errors.New("timeout")}
	g := NewGateway(client, nil, nil, 5)

	res := g.AnalyzeAddition(context.Background(), segs("s1"), nil, "text")
	assertFallback(t, res)
}

func TestAnalyzeAddition_FallbackOnMalformedJSON(t *testing.T) {
	client := &stubClient{content: "sorry, I cannot help with that"}
	g := NewGateway(client, nil, nil, 5)

	res := g.AnalyzeAddition(context.Background(), segs("s1"), nil, "text")
	assertFallback(t, res)
}

func TestAnalyzeAddition_FallbackOnSchemaViolation(t *testing.T) {
	// Empty strategy list violates the min=1 schema constraint
	client := &stubClient{content: `{
		"operation_scope": "isolated",
		"requires_user_choice": false,
		"estimated_credits_range": {"min": 1, "max": 2},
		"recommended_strategies": []
	}`}
	g := NewGateway(client, nil, nil, 5)

	res := g.AnalyzeAddition(context.Background(), segs("s1"), nil, "text")
	assertFallback(t, res)
}

func TestAnalyzeRemoval_UnknownSegmentFallsBack(t *testing.T) {
	client := &stubClient{content: validResponse}
	g := NewGateway(client, nil, nil, 5)

	res := g.AnalyzeRemoval(context.Background(), segs("s1"), "missing")
	assertFallback(t, res)
	if client.prompt != "" {
		t.Fatalf("capability must not be called for unknown segment")
	}
}

type countingClient struct {
	content string
	calls   int
}

func (c *countingClient) Complete(ctx context.Context, prompt string) (string, error) {
	c.calls++
	return c.content, nil
}

func TestAnalyze_CachesIdenticalRequests(t *testing.T) {
	client := &countingClient{content: validResponse}
	store := cache.NewAnalysisStore(time.Minute)
	defer store.Stop()
	g := NewGateway(client, store, nil, 5)

	segments := segs("s1", "s2")
	g.AnalyzeRemoval(context.Background(), segments, "s1")
	g.AnalyzeRemoval(context.Background(), segments, "s1")
	if client.calls != 1 {
		t.Fatalf("identical request hit the capability %d times", client.calls)
	}

	// A different edit misses the cache
	g.AnalyzeRemoval(context.Background(), segments, "s2")
	if client.calls != 2 {
		t.Fatalf("distinct request served from cache")
	}
}

func TestAnalyze_FallbackNotCached(t *testing.T) {
	client := &countingClient{content: "not json"}
	store := cache.NewAnalysisStore(time.Minute)
	defer store.Stop()
	g := NewGateway(client, store, nil, 5)

	g.AnalyzeRemoval(context.Background(), segs("s1"), "s1")
	g.AnalyzeRemoval(context.Background(), segs("s1"), "s1")
	if client.calls != 2 {
		t.Fatalf("fallback result was cached, calls = %d", client.calls)
	}
}

func TestContextWindow_Bounds(t *testing.T) {
	segments := segs("a", "b", "c", "d", "e", "f")

	window := contextWindow(segments, 3)
	if len(window) != 4 {
		t.Fatalf("expected 4 context segments, got %d", len(window))
	}
	if window[0].Text != "segment b" || window[3].Text != "segment e" {
		t.Fatalf("wrong window: %v", window)
	}

	head := contextWindow(segments, 0)
	if len(head) != 2 {
		t.Fatalf("window at head should clamp, got %d", len(head))
	}

	tail := contextWindow(segments, len(segments))
	if len(tail) != 2 {
		t.Fatalf("window at tail should clamp, got %d", len(tail))
	}
}

func assertFallback(t *testing.T, res *entities.ImpactAnalysis) {
	t.Helper()
	if res == nil {
		t.Fatalf("analysis must never be nil")
	}
	if res.Scope != entities.ScopeIsolated {
		t.Fatalf("fallback scope = %s, want isolated", res.Scope)
	}
	if res.RequiresUserChoice {
		t.Fatalf("fallback must not require user choice")
	}
	if len(res.Strategies) != 1 {
		t.Fatalf("fallback must contain exactly one strategy, got %d", len(res.Strategies))
	}
	if len(res.AffectedSegmentIDs) != 0 {
		t.Fatalf("fallback must not mark segments affected")
	}
	if res.Recommended() == nil || res.Recommended().ID != res.RecommendedStrategyID {
		t.Fatalf("fallback recommendation not resolvable")
	}
	if res.Strategies[0].QualityImpact != entities.QualityImpactMinor {
		t.Fatalf("fallback strategy quality = %s", res.Strategies[0].QualityImpact)
	}
}
