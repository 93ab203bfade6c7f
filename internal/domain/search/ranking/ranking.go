// Package ranking orders buildings against a search request.
//
// Scoring takes the maximum of several signals instead of summing them, so a
// building that matches one field strongly is not outranked by one that matches
// many fields weakly. Weights are fixed.
package ranking

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/kailas-cloud/campusnav/internal/domain"
	"github.com/kailas-cloud/campusnav/internal/domain/building"
	"github.com/kailas-cloud/campusnav/internal/domain/geo"
	"github.com/kailas-cloud/campusnav/internal/domain/search/mode"
	"github.com/kailas-cloud/campusnav/internal/domain/search/request"
	"github.com/kailas-cloud/campusnav/internal/domain/search/result"
	"github.com/kailas-cloud/campusnav/internal/domain/search/similarity"
)

// Score weights and floors.
const (
	ExactMatchScore   = 100.0
	KeywordWeight     = 0.7
	DescriptionWeight = 0.5
	NameTokenFloor    = 80.0
	KeywordTokenFloor = 70.0
)

var tokenRegex = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Engine ranks candidate pools. It holds no per-call state and is safe for concurrent use.
type Engine struct {
	measure similarity.Measure
}

// New creates an Engine. A nil measure falls back to similarity.Indel.
func New(m similarity.Measure) *Engine {
	if m == nil {
		m = similarity.Indel{}
	}
	return &Engine{measure: m}
}

// Rank filters, scores, sorts and truncates pool according to req.
// The pool is never mutated. A candidate with an empty name or invalid
// coordinates aborts the call with domain.ErrInvalidCandidate.
func (e *Engine) Rank(pool []building.Building, req *request.Request) ([]result.Result, error) {
	for i := range pool {
		if err := checkCandidate(&pool[i]); err != nil {
			return nil, err
		}
	}

	cands := filter(pool, req)
	if req.Mode() != mode.Scored {
		return e.byLocation(cands, req), nil
	}
	return e.byScore(cands, req), nil
}

// byLocation returns candidates sorted by ascending distance when the request
// has a location, store order otherwise.
func (e *Engine) byLocation(cands []*building.Building, req *request.Request) []result.Result {
	loc := req.Location()
	if loc == nil {
		out := make([]result.Result, 0, min(len(cands), req.Limit()))
		for _, b := range cands[:min(len(cands), req.Limit())] {
			out = append(out, result.New(b, nil, nil))
		}
		return out
	}

	type hit struct {
		b    *building.Building
		dist float64
	}
	hits := make([]hit, len(cands))
	for i, b := range cands {
		hits[i] = hit{b: b, dist: geo.DistanceKm(*loc, b.Coordinates())}
	}
	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		}
		return 0
	})

	out := make([]result.Result, 0, min(len(hits), req.Limit()))
	for _, h := range hits[:min(len(hits), req.Limit())] {
		out = append(out, result.New(h.b, &h.dist, nil))
	}
	return out
}

// byScore sorts by descending score. Distance is reported but never used as a key.
func (e *Engine) byScore(cands []*building.Building, req *request.Request) []result.Result {
	query := strings.ToLower(req.Query())
	tokens := Tokens(query)

	type hit struct {
		b     *building.Building
		score float64
	}
	hits := make([]hit, len(cands))
	for i, b := range cands {
		hits[i] = hit{b: b, score: e.score(query, tokens, b)}
	}
	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})

	loc := req.Location()
	out := make([]result.Result, 0, min(len(hits), req.Limit()))
	for _, h := range hits[:min(len(hits), req.Limit())] {
		var dist *float64
		if loc != nil {
			d := geo.DistanceKm(*loc, h.b.Coordinates())
			dist = &d
		}
		score := h.score
		out = append(out, result.New(h.b, dist, &score))
	}
	return out
}

// Score computes the match score of b against query (0-100).
// The query is lowercased here; callers may pass raw input.
func (e *Engine) Score(query string, b *building.Building) float64 {
	query = strings.ToLower(strings.TrimSpace(query))
	return e.score(query, Tokens(query), b)
}

// score expects a lowercased query and its token set.
func (e *Engine) score(query string, tokens []string, b *building.Building) float64 {
	name := strings.ToLower(b.Name())
	shortName := strings.ToLower(b.ShortName())

	if query == name || (shortName != "" && query == shortName) {
		return ExactMatchScore
	}

	score := float64(e.measure.PartialRatio(query, name))
	if shortName != "" {
		score = max(score, float64(e.measure.PartialRatio(query, shortName)))
	}

	keywords := make([]string, len(b.Keywords()))
	best := 0
	for i, kw := range b.Keywords() {
		keywords[i] = strings.ToLower(kw)
		best = max(best, e.measure.Ratio(query, keywords[i]))
	}
	if len(keywords) > 0 {
		score = max(score, float64(best)*KeywordWeight)
	}

	if desc := b.Description(); desc != "" {
		score = max(score, float64(e.measure.PartialRatio(query, strings.ToLower(desc)))*DescriptionWeight)
	}

	for _, tok := range tokens {
		switch {
		case strings.Contains(name, tok) || (shortName != "" && strings.Contains(shortName, tok)):
			score = max(score, NameTokenFloor)
		case containsAny(keywords, tok):
			score = max(score, KeywordTokenFloor)
		}
	}
	return score
}

// Tokens splits s into its distinct word runs (letters, digits, underscore), first occurrence order.
func Tokens(s string) []string {
	words := tokenRegex.FindAllString(s, -1)
	seen := make(map[string]struct{}, len(words))
	out := words[:0]
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func filter(pool []building.Building, req *request.Request) []*building.Building {
	out := make([]*building.Building, 0, len(pool))
	for i := range pool {
		b := &pool[i]
		if req.Category() != "" && b.Category() != req.Category() {
			continue
		}
		if req.Department() != "" && b.Department() != req.Department() {
			continue
		}
		out = append(out, b)
	}
	return out
}

func checkCandidate(b *building.Building) error {
	if b.Name() == "" {
		return fmt.Errorf("candidate %q: empty name: %w", b.ID(), domain.ErrInvalidCandidate)
	}
	if err := b.Coordinates().Validate(); err != nil {
		return fmt.Errorf("candidate %q: %v: %w", b.ID(), err, domain.ErrInvalidCandidate)
	}
	return nil
}

func containsAny(haystacks []string, needle string) bool {
	for _, h := range haystacks {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}
