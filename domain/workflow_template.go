package domain

import (
	"github.com/fundwit/go-commons/types"
)

const (
	StepTypeAction       = "action"
	StepTypeDecision     = "decision"
	StepTypeDocument     = "document"
	StepTypeMeeting      = "meeting"
	StepTypeNotification = "notification"
	StepTypeMilestone    = "milestone"
)

// WorkflowTemplate is immutable once progress records reference it;
// changes are made by creating a new version and flipping IsActive.
type WorkflowTemplate struct {
	ID   types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Name string   `json:"name"`

	WorldID  types.ID `json:"worldId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Version  int      `json:"version"`
	IsActive bool     `json:"isActive"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

// WorkflowStep is a node of a template's step graph. A zero edge id
// means the edge is not configured; a decision step with no configured
// edge for the taken branch falls back to NextStepID, and a step with
// no applicable edge at all terminates the branch.
type WorkflowStep struct {
	ID         types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	TemplateID types.ID `json:"templateId" gorm:"index" sql:"type:BIGINT UNSIGNED NOT NULL"`

	StepNumber int    `json:"stepNumber"`
	Name       string `json:"name"`
	StepType   string `json:"stepType"`

	RequiresDecision   bool `json:"requiresDecision"`
	RequiresAttachment bool `json:"requiresAttachment"`
	IsTerminal         bool `json:"isTerminal"`

	NextStepID            types.ID `json:"nextStepId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	DecisionYesNextStepID types.ID `json:"decisionYesNextStepId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	DecisionNoNextStepID  types.ID `json:"decisionNoNextStepId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	AutoActions ActionSpecs `json:"autoActions" sql:"type:TEXT"`

	// consumed by the UI only
	FormFields JSONMap `json:"formFields" sql:"type:TEXT"`
	Conditions JSONMap `json:"conditions" sql:"type:TEXT"`
	Metadata   JSONMap `json:"metadata" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}
