package domain

import (
	"github.com/fundwit/go-commons/types"
)

const (
	HistoryActionStepStarted       = "STEP_STARTED"
	HistoryActionFormDataSaved     = "FORM_DATA_SAVED"
	HistoryActionStepCompleted     = "STEP_COMPLETED"
	HistoryActionStepRolledBack    = "STEP_ROLLED_BACK"
	HistoryActionCascadeRollback   = "CASCADE_ROLLBACK"
	HistoryActionTransferInitiated = "TRANSFER_INITIATED"
	HistoryActionTransferCompleted = "TRANSFER_COMPLETED"
	HistoryActionTransferFailed    = "TRANSFER_FAILED"
)

// DossierWorkflowHistory is append-only, records are never updated or
// deleted.
type DossierWorkflowHistory struct {
	ID types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`

	DossierID types.ID `json:"dossierId" gorm:"index" sql:"type:BIGINT UNSIGNED NOT NULL"`
	StepID    types.ID `json:"stepId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	Action    string `json:"action"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`

	PerformedBy   types.ID `json:"performedBy"`
	PerformedName string   `json:"performedName"`
	Notes         string   `json:"notes" sql:"type:TEXT"`
	Metadata      JSONMap  `json:"metadata" sql:"type:TEXT"`

	Timestamp types.Timestamp `json:"timestamp" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *DossierWorkflowHistory) TableName() string {
	return "dossier_workflow_histories"
}
