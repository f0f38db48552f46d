package domain

import (
	"github.com/fundwit/go-commons/types"
)

const (
	TransferStatusPending    = "pending"
	TransferStatusInProgress = "in_progress"
	TransferStatusCompleted  = "completed"
	TransferStatusFailed     = "failed"

	TransferTypeWorldChange = "world_change"
)

// DossierTransfer records one cross-world move. TargetDossierID stays
// zero until the transfer completes successfully; failures are recorded
// on the row rather than thrown.
type DossierTransfer struct {
	ID types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`

	SourceDossierID types.ID `json:"sourceDossierId" gorm:"index" sql:"type:BIGINT UNSIGNED NOT NULL"`
	SourceWorldID   types.ID `json:"sourceWorldId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	TargetWorldID   types.ID `json:"targetWorldId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	TargetDossierID types.ID `json:"targetDossierId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	TransferType  string   `json:"transferType"`
	Status        string   `json:"status"`
	TransferredBy types.ID `json:"transferredBy"`
	ErrorMessage  string   `json:"errorMessage" sql:"type:TEXT"`
	Metadata      JSONMap  `json:"metadata" sql:"type:TEXT"`

	CreateTime  types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	CompletedAt types.Timestamp `json:"completedAt" sql:"type:DATETIME(6)"`
}
