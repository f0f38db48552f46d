package graph

import (
	"claimflow/bizerror"
	"claimflow/domain"
	"claimflow/persistence"
	"context"
	"sort"

	"github.com/fundwit/go-commons/types"
)

var (
	LoadWorkflowGraphFunc = LoadWorkflowGraph
)

// WorkflowGraph is the immutable step graph of one template version.
// It exposes no mutation API; templates are superseded by new versions,
// never edited in place.
type WorkflowGraph struct {
	Template domain.WorkflowTemplate

	steps   map[types.ID]*domain.WorkflowStep
	ordered []*domain.WorkflowStep
}

func NewWorkflowGraph(template domain.WorkflowTemplate, steps []domain.WorkflowStep) *WorkflowGraph {
	g := &WorkflowGraph{Template: template, steps: map[types.ID]*domain.WorkflowStep{}}
	for i := range steps {
		step := steps[i]
		g.steps[step.ID] = &step
		g.ordered = append(g.ordered, g.steps[step.ID])
	}
	sort.Slice(g.ordered, func(i, j int) bool {
		return g.ordered[i].StepNumber < g.ordered[j].StepNumber
	})
	return g
}

// LoadWorkflowGraph builds the graph for a template with a single fetch
// of its step rows.
func LoadWorkflowGraph(ctx context.Context, templateId types.ID) (*WorkflowGraph, error) {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)

	template := domain.WorkflowTemplate{}
	if err := db.Where(&domain.WorkflowTemplate{ID: templateId}).First(&template).Error; err != nil {
		return nil, err
	}

	var steps []domain.WorkflowStep
	if err := db.Where(&domain.WorkflowStep{TemplateID: template.ID}).Find(&steps).Error; err != nil {
		return nil, err
	}
	return NewWorkflowGraph(template, steps), nil
}

func (g *WorkflowGraph) ResolveStep(stepId types.ID) (*domain.WorkflowStep, error) {
	step, found := g.steps[stepId]
	if !found {
		return nil, bizerror.ErrNotFound
	}
	return step, nil
}

// FirstStep is the step with the lowest step number. Step numbers order
// the graph but are not necessarily dense.
func (g *WorkflowGraph) FirstStep() (*domain.WorkflowStep, error) {
	if len(g.ordered) == 0 {
		return nil, bizerror.ErrNoStepsConfigured
	}
	return g.ordered[0], nil
}

func (g *WorkflowGraph) Steps() []*domain.WorkflowStep {
	return g.ordered
}

// FollowEdge resolves a configured edge. A zero id means the edge is not
// configured (nil, nil); an id pointing outside the template is a
// configuration defect detected lazily here.
func (g *WorkflowGraph) FollowEdge(stepId types.ID) (*domain.WorkflowStep, error) {
	if stepId == 0 {
		return nil, nil
	}
	step, found := g.steps[stepId]
	if !found {
		return nil, bizerror.ErrInvalidGraphReference
	}
	return step, nil
}
