package route

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/woozymasta/safezone/internal/config"
	"github.com/woozymasta/safezone/internal/geo"
	"github.com/woozymasta/safezone/internal/score"

	"github.com/rs/zerolog/log"
)

// DefaultMaxRouteLengthKm is the half-score length used when none is configured.
const DefaultMaxRouteLengthKm = 25.0

// OptimizationError is the message carried by failed results.
const OptimizationError = "safe route optimization error"

// ErrMalformedRoute reports a coordinate that is not a real number.
var ErrMalformedRoute = errors.New("malformed route coordinate")

// Kind classifies a failed Result.
type Kind int

const (
	KindNone Kind = iota
	KindMalformedInput
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMalformedInput:
		return "malformed_input"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Summary describes one candidate route.
type Summary struct {
	GraphPath       geo.Route `json:"graphPath"`
	Index           int       `json:"index"`
	LengthKm        float64   `json:"lengthKm"`
	SafetyScore     float64   `json:"safetyScore"`
	GraphDistanceKm float64   `json:"graphDistanceKm"` // +Inf when unreachable
	IsRecommended   bool      `json:"isRecommended"`
	MeetsMinimum    bool      `json:"meetsMinimum"`
}

// Reachable reports whether the graph connects the route endpoints.
func (s Summary) Reachable() bool {
	return !math.IsInf(s.GraphDistanceKm, 1)
}

// MarshalJSON writes an unreachable graph distance as null and a missing
// path as an empty array.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	out := struct {
		plain
		GraphDistanceKm *float64 `json:"graphDistanceKm"`
	}{plain: plain(s)}

	if s.Reachable() {
		d := s.GraphDistanceKm
		out.GraphDistanceKm = &d
	}
	if out.GraphPath == nil {
		out.GraphPath = geo.Route{}
	}

	return json.Marshal(out)
}

// Result is the outcome of Optimize. A failed result has Kind set and
// Error filled, and is otherwise the empty result.
type Result struct {
	BestIndex *int      `json:"bestIndex"`
	BestRoute geo.Route `json:"bestRoute"`
	Summaries []Summary `json:"summaries"`
	Error     string    `json:"error,omitempty"`
	Kind      Kind      `json:"-"`
	GraphUsed bool      `json:"graphUsed"`
}

// Failed reports whether the optimization was rejected.
func (r Result) Failed() bool {
	return r.Kind != KindNone
}

// Best returns the recommended summary, if any.
func (r Result) Best() (Summary, bool) {
	for _, s := range r.Summaries {
		if s.IsRecommended {
			return s, true
		}
	}
	return Summary{}, false
}

// Optimizer ranks candidate routes.
type Optimizer struct {
	cfg config.Route
}

// NewOptimizer returns an optimizer using cfg. A non-positive max route
// length falls back to DefaultMaxRouteLengthKm.
func NewOptimizer(cfg config.Route) *Optimizer {
	if cfg.MaxRouteLengthKm <= 0 {
		cfg.MaxRouteLengthKm = DefaultMaxRouteLengthKm
	}
	return &Optimizer{cfg: cfg}
}

// SafetyScore maps a route length onto (0,1]. Zero-length routes score 1;
// longer routes decay towards 0 without reaching it.
func (o *Optimizer) SafetyScore(lengthKm float64) float64 {
	if lengthKm <= 0 {
		return 1
	}
	return score.Clamp01(o.cfg.MaxRouteLengthKm / (lengthKm + o.cfg.MaxRouteLengthKm))
}

// Optimize scores every route against a graph built from the whole batch and
// recommends the safest one, preferring the shorter route on equal scores.
//
// It never fails outright: malformed input yields an empty Result with Error set.
func (o *Optimizer) Optimize(routes []geo.Route) Result {
	if len(routes) == 0 {
		return Result{Summaries: []Summary{}}
	}

	if err := validate(routes); err != nil {
		log.Error().Err(err).Int("routes", len(routes)).Msg("Safe route optimization failed")
		return Result{
			Summaries: []Summary{},
			Error:     OptimizationError,
			Kind:      KindMalformedInput,
		}
	}

	graph := BuildGraph(routes)

	summaries := make([]Summary, len(routes))
	for i, r := range routes {
		length := r.LengthKm()
		s := Summary{
			Index:           i,
			LengthKm:        length,
			SafetyScore:     o.SafetyScore(length),
			GraphDistanceKm: math.Inf(1),
		}
		s.MeetsMinimum = s.SafetyScore >= o.cfg.MinSafeRouteScore

		if len(r) >= 2 {
			s.GraphDistanceKm, s.GraphPath = graph.ShortestPath(r[0], r[len(r)-1])
		}

		summaries[i] = s
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].SafetyScore != summaries[j].SafetyScore {
			return summaries[i].SafetyScore > summaries[j].SafetyScore
		}
		return summaries[i].LengthKm < summaries[j].LengthKm
	})
	summaries[0].IsRecommended = true

	best := summaries[0].Index

	log.Debug().
		Int("routes", len(routes)).
		Int("nodes", graph.NodeCount()).
		Int("edges", graph.EdgeCount()).
		Int("best", best).
		Float64("best_score", summaries[0].SafetyScore).
		Msg("Routes ranked")

	return Result{
		BestIndex: &best,
		BestRoute: routes[best],
		Summaries: summaries,
		GraphUsed: true,
	}
}

func validate(routes []geo.Route) error {
	for i, r := range routes {
		for j, c := range r {
			if !c.Finite() {
				return fmt.Errorf("route %d point %d: %w", i, j, ErrMalformedRoute)
			}
		}
	}
	return nil
}
