package event

import (
	"claimflow/domain"
	"claimflow/misc"
	"claimflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	HistoryPersistCreateFunc = historyPersistCreate
)

// CreateHistoryEvent appends one audit record for a workflow transition.
func CreateHistoryEvent(dossierId, stepId types.ID, action, oldStatus, newStatus string,
	notes string, metadata domain.JSONMap, identity *session.Identity, db *gorm.DB) (*domain.DossierWorkflowHistory, error) {

	record := domain.DossierWorkflowHistory{
		ID:        misc.NextId(idWorker),
		DossierID: dossierId,
		StepID:    stepId,

		Action:    action,
		OldStatus: oldStatus,
		NewStatus: newStatus,

		PerformedBy:   identity.ID,
		PerformedName: identity.Name,
		Notes:         notes,
		Metadata:      metadata,

		Timestamp: types.CurrentTimestamp(),
	}
	if err := HistoryPersistCreateFunc(&record, db); err != nil {
		return nil, err
	}
	return &record, nil
}

func historyPersistCreate(record *domain.DossierWorkflowHistory, db *gorm.DB) error {
	return db.Create(record).Error
}
