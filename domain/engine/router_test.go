package engine_test

import (
	"claimflow/bizerror"
	"claimflow/domain"
	"claimflow/domain/engine"
	"claimflow/domain/graph"
	"testing"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func boolPtr(v bool) *bool {
	return &v
}

func TestResolveNext(t *testing.T) {
	RegisterTestingT(t)

	g := graph.NewWorkflowGraph(domain.WorkflowTemplate{ID: 100}, []domain.WorkflowStep{
		{ID: 1, TemplateID: 100, StepNumber: 10, Name: "Intake", NextStepID: 2},
		{ID: 2, TemplateID: 100, StepNumber: 20, Name: "Coverage decision", StepType: domain.StepTypeDecision,
			RequiresDecision: true, NextStepID: 5, DecisionYesNextStepID: 3, DecisionNoNextStepID: 4},
		{ID: 3, TemplateID: 100, StepNumber: 30, Name: "Settlement"},
		{ID: 4, TemplateID: 100, StepNumber: 40, Name: "Rejection letter"},
		{ID: 5, TemplateID: 100, StepNumber: 50, Name: "Archive"},
	})

	t.Run("should follow the default edge on a plain step", func(t *testing.T) {
		step, _ := g.ResolveStep(1)
		next, err := engine.ResolveNext(g, step, nil)
		Expect(err).To(BeNil())
		Expect(next.ID).To(Equal(types.ID(2)))
	})

	t.Run("should follow the yes edge over the default edge", func(t *testing.T) {
		step, _ := g.ResolveStep(2)
		next, err := engine.ResolveNext(g, step, boolPtr(true))
		Expect(err).To(BeNil())
		Expect(next.ID).To(Equal(types.ID(3)))
	})

	t.Run("should follow the no edge over the default edge", func(t *testing.T) {
		step, _ := g.ResolveStep(2)
		next, err := engine.ResolveNext(g, step, boolPtr(false))
		Expect(err).To(BeNil())
		Expect(next.ID).To(Equal(types.ID(4)))
	})

	t.Run("should fall through to the default edge when the chosen edge is not configured", func(t *testing.T) {
		step := &domain.WorkflowStep{ID: 2, RequiresDecision: true, NextStepID: 5, DecisionYesNextStepID: 3}
		next, err := engine.ResolveNext(g, step, boolPtr(false))
		Expect(err).To(BeNil())
		Expect(next.ID).To(Equal(types.ID(5)))
	})

	t.Run("should ignore decision edges when no decision was taken", func(t *testing.T) {
		step, _ := g.ResolveStep(2)
		next, err := engine.ResolveNext(g, step, nil)
		Expect(err).To(BeNil())
		Expect(next.ID).To(Equal(types.ID(5)))
	})

	t.Run("should terminate the branch when no edge applies", func(t *testing.T) {
		step, _ := g.ResolveStep(3)
		next, err := engine.ResolveNext(g, step, nil)
		Expect(err).To(BeNil())
		Expect(next).To(BeNil())
	})

	t.Run("should surface edges pointing outside the template", func(t *testing.T) {
		step := &domain.WorkflowStep{ID: 1, NextStepID: 999}
		next, err := engine.ResolveNext(g, step, nil)
		Expect(next).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrInvalidGraphReference))
	})
}
