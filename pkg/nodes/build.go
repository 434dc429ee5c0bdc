package nodes

import (
	"github.com/codeready-toolchain/deepsearch/pkg/graph"
)

// Build wires the nine node types into the research graph's topology:
// router branches to direct_answer / clarifier / planner; planner and
// refine_plan both feed initiate_research's fan-out;
// the fan-out barrier feeds writer; writer branches to evaluator (deep
// route only) or human_review; evaluator branches to refine_plan, reviser,
// or human_review; reviser loops back to evaluator; human_review is the
// terminal, optionally suspending via an interrupt.
func Build(deps Deps, cancel *graph.CancelRegistry, checkpt graph.Checkpointer) (*graph.Graph, error) {
	router := NewRouter(deps)
	clarifier := NewClarifier(deps)
	directAnswer := NewDirectAnswer(deps)
	planner := NewPlanner(deps)
	initiateResearch := NewInitiateResearch(deps)
	writer := NewWriter(deps)
	evaluator := NewEvaluator(deps)
	refinePlan := NewRefinePlan(deps)
	reviser := NewReviser(deps)
	humanReview := NewHumanReview(deps)

	b := graph.NewBuilder("deepsearch", router.Name(), cancel, checkpt)
	b.AddNode(router, router.Edge)
	b.AddNode(clarifier, clarifier.Edge)
	b.AddNode(directAnswer, directAnswer.Edge)
	b.AddNode(planner, planner.Edge)
	b.AddNode(initiateResearch, initiateResearch.Edge)
	b.AddNode(writer, writer.Edge)
	b.AddNode(evaluator, evaluator.Edge)
	b.AddNode(refinePlan, refinePlan.Edge)
	b.AddNode(reviser, reviser.Edge)
	b.AddNode(humanReview, humanReview.Edge)

	return b.Build()
}
