package graph_test

import (
	"claimflow/bizerror"
	"claimflow/domain"
	"claimflow/domain/graph"
	"testing"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func buildTestGraph() *graph.WorkflowGraph {
	template := domain.WorkflowTemplate{ID: 100, Name: "test template", WorldID: 1, Version: 1, IsActive: true}
	steps := []domain.WorkflowStep{
		{ID: 3, TemplateID: 100, StepNumber: 30, Name: "Closing"},
		{ID: 1, TemplateID: 100, StepNumber: 10, Name: "Intake", NextStepID: 2},
		{ID: 2, TemplateID: 100, StepNumber: 20, Name: "Assessment", NextStepID: 3},
	}
	return graph.NewWorkflowGraph(template, steps)
}

func TestResolveStep(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should resolve steps belonging to the template", func(t *testing.T) {
		g := buildTestGraph()
		step, err := g.ResolveStep(2)
		Expect(err).To(BeNil())
		Expect(step.Name).To(Equal("Assessment"))
	})

	t.Run("should return not found for steps outside the template", func(t *testing.T) {
		g := buildTestGraph()
		step, err := g.ResolveStep(404)
		Expect(step).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrNotFound))
	})
}

func TestFirstStep(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should return the step with the lowest step number", func(t *testing.T) {
		g := buildTestGraph()
		step, err := g.FirstStep()
		Expect(err).To(BeNil())
		Expect(step.ID).To(Equal(types.ID(1)))
		Expect(step.Name).To(Equal("Intake"))
	})

	t.Run("should work with sparse step numbers", func(t *testing.T) {
		g := graph.NewWorkflowGraph(domain.WorkflowTemplate{ID: 100}, []domain.WorkflowStep{
			{ID: 7, TemplateID: 100, StepNumber: 700},
			{ID: 5, TemplateID: 100, StepNumber: 55},
		})
		step, err := g.FirstStep()
		Expect(err).To(BeNil())
		Expect(step.ID).To(Equal(types.ID(5)))
	})

	t.Run("should report templates without steps", func(t *testing.T) {
		g := graph.NewWorkflowGraph(domain.WorkflowTemplate{ID: 100}, nil)
		step, err := g.FirstStep()
		Expect(step).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrNoStepsConfigured))
	})
}

func TestSteps(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should list steps in step number order", func(t *testing.T) {
		g := buildTestGraph()
		steps := g.Steps()
		Expect(len(steps)).To(Equal(3))
		Expect(steps[0].Name).To(Equal("Intake"))
		Expect(steps[1].Name).To(Equal("Assessment"))
		Expect(steps[2].Name).To(Equal("Closing"))
	})
}

func TestFollowEdge(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should treat a zero id as an unconfigured edge", func(t *testing.T) {
		g := buildTestGraph()
		step, err := g.FollowEdge(0)
		Expect(step).To(BeNil())
		Expect(err).To(BeNil())
	})

	t.Run("should follow a configured edge", func(t *testing.T) {
		g := buildTestGraph()
		step, err := g.FollowEdge(3)
		Expect(err).To(BeNil())
		Expect(step.Name).To(Equal("Closing"))
	})

	t.Run("should detect edges pointing outside the template", func(t *testing.T) {
		g := buildTestGraph()
		step, err := g.FollowEdge(999)
		Expect(step).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrInvalidGraphReference))
	})
}
