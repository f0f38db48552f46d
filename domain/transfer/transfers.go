package transfer

import (
	"claimflow/bizerror"
	"claimflow/domain"
	"claimflow/domain/clientinfo"
	"claimflow/domain/dossiers"
	"claimflow/domain/graph"
	"claimflow/domain/progress"
	"claimflow/domain/worlds"
	"claimflow/event"
	"claimflow/misc"
	"claimflow/persistence"
	"claimflow/session"
	"errors"
	"fmt"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	InitiateTransferFunc         = InitiateTransfer
	CheckTransferEligibilityFunc = CheckTransferEligibility

	// installed by the indices package at bootstrap; a completed transfer
	// retires the source document and indexes the target, best-effort
	IndexDossierFunc   func(dossier *domain.Dossier)
	DeindexDossierFunc func(id types.ID)
)

type TransferEligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// CheckTransferEligibility reports whether a dossier can move to the
// named world, as a structured result rather than an error, so callers
// can build UI around it.
func CheckTransferEligibility(dossierId types.ID, targetWorldCode string, s *session.Session) (*TransferEligibility, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	dossier, err := dossiers.FindDossierAndCheckPerms(db, dossierId, s)
	if err != nil {
		return nil, err
	}

	targetWorld, err := worlds.FindWorldByCodeFunc(db, targetWorldCode)
	if err != nil {
		return nil, err
	}
	if targetWorld == nil {
		return &TransferEligibility{Eligible: false, Reason: "target world does not exist"}, nil
	}
	if targetWorld.ID == dossier.WorldID {
		return &TransferEligibility{Eligible: false, Reason: "dossier already belongs to the target world"}, nil
	}
	if dossier.Status == domain.DossierStatusTransferred {
		return &TransferEligibility{Eligible: false, Reason: "dossier is already transferred"}, nil
	}

	template := domain.WorkflowTemplate{}
	err = db.Where(&domain.WorkflowTemplate{WorldID: targetWorld.ID, IsActive: true}).First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &TransferEligibility{Eligible: false, Reason: "target world has no active workflow template"}, nil
		}
		return nil, err
	}

	return &TransferEligibility{Eligible: true}, nil
}

// InitiateTransfer moves a dossier's context into another world. The
// transfer row is committed before the move starts; a mid-transfer
// failure is recorded on that row (status failed, errorMessage) and the
// partially built target is rolled back with it, never left dangling.
func InitiateTransfer(dossierId types.ID, targetWorldCode string, s *session.Session) (*domain.DossierTransfer, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	dossier, err := dossiers.FindDossierAndCheckPerms(db, dossierId, s)
	if err != nil {
		return nil, err
	}
	targetWorld, err := worlds.FindWorldByCodeFunc(db, targetWorldCode)
	if err != nil {
		return nil, err
	}
	if targetWorld == nil {
		return nil, bizerror.ErrWorldNotFound
	}
	if dossier.Status == domain.DossierStatusTransferred {
		return nil, bizerror.ErrDossierTransferred
	}

	transfer := domain.DossierTransfer{
		ID:              misc.NextId(idWorker),
		SourceDossierID: dossier.ID,
		SourceWorldID:   dossier.WorldID,
		TargetWorldID:   targetWorld.ID,

		TransferType:  domain.TransferTypeWorldChange,
		Status:        domain.TransferStatusPending,
		TransferredBy: s.Identity.ID,

		CreateTime: types.CurrentTimestamp(),
	}
	if err := db.Create(&transfer).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&domain.DossierTransfer{}).Where(&domain.DossierTransfer{ID: transfer.ID}).
		Update("status", domain.TransferStatusInProgress).Error; err != nil {
		return nil, err
	}
	transfer.Status = domain.TransferStatusInProgress

	target, err := executeTransfer(db, dossier, targetWorld, &transfer, s)
	if err != nil {
		logrus.Warnf("transfer %d of dossier %d to world %s failed: %v", transfer.ID, dossier.ID, targetWorldCode, err)
		if err := db.Model(&domain.DossierTransfer{}).Where(&domain.DossierTransfer{ID: transfer.ID}).
			Update(map[string]interface{}{
				"status":        domain.TransferStatusFailed,
				"error_message": err.Error(),
			}).Error; err != nil {
			return nil, err
		}
		transfer.Status = domain.TransferStatusFailed
		transfer.ErrorMessage = err.Error()
		return &transfer, nil
	}

	now := types.CurrentTimestamp()
	if err := db.Model(&domain.DossierTransfer{}).Where(&domain.DossierTransfer{ID: transfer.ID}).
		Update(map[string]interface{}{
			"status":            domain.TransferStatusCompleted,
			"target_dossier_id": target.ID,
			"completed_at":      now,
		}).Error; err != nil {
		return nil, err
	}
	transfer.Status = domain.TransferStatusCompleted
	transfer.TargetDossierID = target.ID
	transfer.CompletedAt = now

	if DeindexDossierFunc != nil {
		DeindexDossierFunc(dossier.ID)
	}
	if IndexDossierFunc != nil {
		IndexDossierFunc(target)
	}

	logrus.Infof("dossier %d transferred to world %s as dossier %d", dossier.ID, targetWorldCode, target.ID)
	return &transfer, nil
}

// executeTransfer builds the target dossier inside one transaction so a
// failure leaves no partial target behind.
func executeTransfer(db *gorm.DB, source *domain.Dossier, targetWorld *domain.World,
	transfer *domain.DossierTransfer, s *session.Session) (*domain.Dossier, error) {

	template := domain.WorkflowTemplate{}
	err := db.Where(&domain.WorkflowTemplate{WorldID: targetWorld.ID, IsActive: true}).First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("target world %s has no active workflow template", targetWorld.Code)
		}
		return nil, err
	}

	now := types.CurrentTimestamp()
	id := misc.NextId(idWorker)
	target := domain.Dossier{
		ID:         id,
		Identifier: fmt.Sprintf("CLM-%s", id.String()),
		Name:       source.Name,

		WorldID:    targetWorld.ID,
		TemplateID: template.ID,
		Status:     domain.DossierStatusNew,

		CreatorID:  s.Identity.ID,
		CreateTime: now,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&target).Error; err != nil {
			return err
		}

		info, err := clientinfo.GetClientInfoFunc(tx, source.ID)
		if err != nil {
			return err
		}
		if info != nil {
			copied := *info
			copied.ID = misc.NextId(idWorker)
			copied.DossierID = target.ID
			copied.CreateTime = now
			if err := tx.Create(&copied).Error; err != nil {
				return err
			}
		}

		g, err := graph.LoadWorkflowGraphFunc(s.Context, template.ID)
		if err != nil {
			return err
		}
		firstStep, err := g.FirstStep()
		if err != nil {
			return err
		}
		if _, err := progress.GetOrCreateFunc(tx, target.ID, firstStep.ID, progress.Defaults{
			Status:     domain.ProgressStatusPending,
			AssignedTo: s.Identity.ID,
			FormData:   clientinfo.FormDataSeed(info),
		}); err != nil {
			return err
		}

		if err := tx.Model(&domain.Dossier{}).Where(&domain.Dossier{ID: source.ID}).
			Update("status", domain.DossierStatusTransferred).Error; err != nil {
			return err
		}

		_, err = event.CreateHistoryEvent(source.ID, 0, domain.HistoryActionTransferCompleted,
			source.Status, domain.DossierStatusTransferred,
			"transferred to world "+targetWorld.Code,
			domain.JSONMap{"transferId": transfer.ID.String(), "targetDossierId": target.ID.String()},
			&s.Identity, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &target, nil
}
