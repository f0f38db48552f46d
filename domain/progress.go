package domain

import (
	"github.com/fundwit/go-commons/types"
)

const (
	ProgressStatusPending    = "pending"
	ProgressStatusInProgress = "in_progress"
	ProgressStatusCompleted  = "completed"
	ProgressStatusSkipped    = "skipped"
	ProgressStatusBlocked    = "blocked"
)

// DossierWorkflowProgress is the per-dossier execution record of one
// step. At most one row exists per (dossier, step); the unique index is
// the safety net for concurrent creation.
type DossierWorkflowProgress struct {
	ID types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`

	DossierID types.ID `json:"dossierId" gorm:"unique_index:uix_dossier_step" sql:"type:BIGINT UNSIGNED NOT NULL"`
	StepID    types.ID `json:"stepId" gorm:"unique_index:uix_dossier_step" sql:"type:BIGINT UNSIGNED NOT NULL"`

	Status     string   `json:"status"`
	AssignedTo types.ID `json:"assignedTo"`

	FormData      JSONMap `json:"formData" sql:"type:TEXT"`
	DecisionTaken *bool   `json:"decisionTaken"`

	StartedAt   types.Timestamp `json:"startedAt" sql:"type:DATETIME(6)"`
	CompletedAt types.Timestamp `json:"completedAt" sql:"type:DATETIME(6)"`

	RollbackReason string          `json:"rollbackReason"`
	RolledBackAt   types.Timestamp `json:"rolledBackAt" sql:"type:DATETIME(6)"`
	RolledBackBy   types.ID        `json:"rolledBackBy"`
	RollbackCount  int             `json:"rollbackCount"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (p *DossierWorkflowProgress) IsCompleted() bool {
	return p.Status == ProgressStatusCompleted
}

func (p *DossierWorkflowProgress) IsRolledBack() bool {
	return p.RolledBackAt != types.Timestamp{}
}
