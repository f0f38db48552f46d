package progress

import (
	"claimflow/domain"
	"claimflow/misc"
	"errors"

	"github.com/fundwit/go-commons/types"
	"github.com/go-sql-driver/mysql"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	GetOrCreateFunc          = GetOrCreate
	FindByDossierAndStepFunc = FindByDossierAndStep
	ListByDossierFunc        = ListByDossier
)

const mysqlErrDuplicateEntry = 1062

// Defaults seed a progress row on first creation only.
type Defaults struct {
	Status     string
	AssignedTo types.ID
	StartedAt  types.Timestamp
	FormData   domain.JSONMap
}

// GetOrCreate is at-most-once per (dossier, step). A duplicate-key error
// on create means another caller won the race, re-read and use that row.
func GetOrCreate(db *gorm.DB, dossierId, stepId types.ID, defaults Defaults) (*domain.DossierWorkflowProgress, error) {
	existing, err := FindByDossierAndStep(db, dossierId, stepId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	status := defaults.Status
	if status == "" {
		status = domain.ProgressStatusPending
	}
	record := domain.DossierWorkflowProgress{
		ID:        misc.NextId(idWorker),
		DossierID: dossierId,
		StepID:    stepId,

		Status:     status,
		AssignedTo: defaults.AssignedTo,
		FormData:   defaults.FormData,
		StartedAt:  defaults.StartedAt,

		CreateTime: types.CurrentTimestamp(),
	}
	if err := db.Create(&record).Error; err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			winner, err := FindByDossierAndStep(db, dossierId, stepId)
			if err != nil {
				return nil, err
			}
			if winner != nil {
				return winner, nil
			}
		}
		return nil, err
	}
	return &record, nil
}

func FindByDossierAndStep(db *gorm.DB, dossierId, stepId types.ID) (*domain.DossierWorkflowProgress, error) {
	record := domain.DossierWorkflowProgress{}
	err := db.Where(&domain.DossierWorkflowProgress{DossierID: dossierId, StepID: stepId}).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func ListByDossier(db *gorm.DB, dossierId types.ID) ([]domain.DossierWorkflowProgress, error) {
	var records []domain.DossierWorkflowProgress
	if err := db.Where(&domain.DossierWorkflowProgress{DossierID: dossierId}).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// SeedFormData is an idempotent repair: a row whose form data is still
// empty may be re-seeded safely, it never overwrites entered data.
func SeedFormData(db *gorm.DB, record *domain.DossierWorkflowProgress, seed domain.JSONMap) error {
	if seed.IsEmpty() || !record.FormData.IsEmpty() {
		return nil
	}
	if err := db.Model(&domain.DossierWorkflowProgress{}).Where(&domain.DossierWorkflowProgress{ID: record.ID}).
		Update("form_data", seed).Error; err != nil {
		return err
	}
	record.FormData = seed
	return nil
}
