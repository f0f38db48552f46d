package engine

import (
	"claimflow/domain"
	"claimflow/domain/graph"
)

// ResolveNext resolves the step a dossier moves to after completing a
// step. Priority order:
//  1. a present decision follows its yes/no edge; an unconfigured
//     chosen edge falls through to the default edge instead of failing
//  2. the default edge
//  3. none: the branch terminates at this dossier
//
// Only an explicit completion may call this; saving form data on a
// decision step never routes.
func ResolveNext(g *graph.WorkflowGraph, completed *domain.WorkflowStep, decisionTaken *bool) (*domain.WorkflowStep, error) {
	if completed.RequiresDecision && decisionTaken != nil {
		edge := completed.DecisionNoNextStepID
		if *decisionTaken {
			edge = completed.DecisionYesNextStepID
		}
		if edge != 0 {
			return g.FollowEdge(edge)
		}
	}
	return g.FollowEdge(completed.NextStepID)
}
