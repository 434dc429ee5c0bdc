package nodes

import (
	"context"

	"github.com/codeready-toolchain/deepsearch/pkg/graph"
	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// routerSchema is the structured shape the router asks the model for.
var routerSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"route":      map[string]any{"type": "string", "enum": []string{"direct", "web", "deep", "agent", "clarify"}},
		"confidence": map[string]any{"type": "number"},
	},
	"required": []string{"route", "confidence"},
}

type routerOutput struct {
	Route      string  `json:"route"`
	Confidence float64 `json:"confidence"`
}

// Router classifies the input into route ∈ {direct, web, deep, agent,
// clarify}. config.search_mode overrides bypass the classifier entirely;
// otherwise a small structured-output prompt supplies route+confidence,
// and anything under ConfidenceThreshold (default 0.6) is forced to
// clarify.
type Router struct {
	Deps Deps
}

func NewRouter(deps Deps) *Router { return &Router{Deps: deps} }

func (r *Router) Name() string { return "router" }

func (r *Router) Run(ctx context.Context, run *runstate.Run) (graph.PartialState, error) {
	if override := routeFromOverride(r.Deps.SearchModeOverride); override != "" {
		route := override
		return graph.PartialState{
			Route:             routePtr(route),
			RoutingConfidence: floatPtr(1.0),
		}, nil
	}

	threshold := r.Deps.ConfidenceThreshold
	if threshold <= 0 {
		threshold = 0.6
	}

	messages := []runstate.Message{
		{Role: runstate.RoleSystem, Content: "Classify the user's request into one of: direct, web, deep, agent, clarify. Respond as JSON {\"route\": ..., \"confidence\": 0..1}."},
		{Role: runstate.RoleUser, Content: run.Input},
	}

	var out routerOutput
	if err := structuredCall(ctx, r.Deps.LLM, messages, routerSchema, &out); err != nil {
		run.AddError("router: " + err.Error())
		route := runstate.RouteClarify
		return graph.PartialState{Route: &route, RoutingConfidence: floatPtr(0)}, nil
	}

	route := runstate.Route(out.Route)
	if out.Confidence < threshold {
		route = runstate.RouteClarify
	}
	return graph.PartialState{Route: &route, RoutingConfidence: floatPtr(out.Confidence)}, nil
}

func routeFromOverride(mode string) runstate.Route {
	switch mode {
	case "direct":
		return runstate.RouteDirect
	case "web":
		return runstate.RouteWeb
	case "deep":
		return runstate.RouteDeep
	case "agent":
		return runstate.RouteAgent
	case "clarify":
		return runstate.RouteClarify
	default:
		return ""
	}
}

func routePtr(r runstate.Route) *runstate.Route { return &r }

// Edge is the router's conditional edge: direct→direct_answer,
// clarify→clarify, everything else→planner (web_plan in the diagram is
// folded into planner since both web and deep routes plan queries; the
// distinction only affects whether evaluator runs afterward, handled by
// the writer's own edge function).
func (r *Router) Edge(run *runstate.Run) string {
	switch run.Route {
	case runstate.RouteDirect:
		return "direct_answer"
	case runstate.RouteClarify:
		return "clarifier"
	default:
		return "planner"
	}
}
