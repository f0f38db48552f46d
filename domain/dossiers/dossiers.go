package dossiers

import (
	"claimflow/bizerror"
	"claimflow/domain"
	"claimflow/domain/clientinfo"
	"claimflow/domain/graph"
	"claimflow/domain/progress"
	"claimflow/event"
	"claimflow/misc"
	"claimflow/persistence"
	"claimflow/session"
	"errors"
	"fmt"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateDossierFunc = CreateDossier
	DetailDossierFunc = DetailDossier
	QueryDossiersFunc = QueryDossiers
	QueryHistoryFunc  = QueryHistory

	// IndexDossierFunc is installed by the indices package at bootstrap;
	// indexing is best-effort and never fails dossier creation.
	IndexDossierFunc func(dossier *domain.Dossier)
)

type DossierCreation struct {
	Name    string   `json:"name" validate:"required"`
	WorldID types.ID `json:"worldId" validate:"required"`

	Client *ClientInfoCreation `json:"client"`
}

type ClientInfoCreation struct {
	ClientName   string `json:"clientName" validate:"required"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PolicyNumber string `json:"policyNumber"`
	Address      string `json:"address"`
}

type DossierQuery struct {
	WorldID types.ID `json:"worldId" form:"worldId"`
	Status  string   `json:"status" form:"status"`
}

// CreateDossier binds the new dossier to the world's active template
// version and opens the template's first step as pending, seeded from
// the client snapshot when one is supplied.
func CreateDossier(c *DossierCreation, s *session.Session) (*domain.Dossier, error) {
	if !s.Perms.HasRoleSuffix("_" + c.WorldID.String()) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	template := domain.WorkflowTemplate{}
	err := db.Where(&domain.WorkflowTemplate{WorldID: c.WorldID, IsActive: true}).First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrTemplateNotActive
		}
		return nil, err
	}

	now := types.CurrentTimestamp()
	id := misc.NextId(idWorker)
	dossier := domain.Dossier{
		ID:         id,
		Identifier: fmt.Sprintf("CLM-%s", id.String()),
		Name:       c.Name,

		WorldID:    c.WorldID,
		TemplateID: template.ID,
		Status:     domain.DossierStatusNew,

		CreatorID:  s.Identity.ID,
		CreateTime: now,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dossier).Error; err != nil {
			return err
		}

		var info *domain.ClientInfo
		if c.Client != nil {
			info = &domain.ClientInfo{
				ID:        misc.NextId(idWorker),
				DossierID: dossier.ID,

				ClientName:   c.Client.ClientName,
				Email:        c.Client.Email,
				Phone:        c.Client.Phone,
				PolicyNumber: c.Client.PolicyNumber,
				Address:      c.Client.Address,

				CreateTime: now,
			}
			if err := tx.Create(info).Error; err != nil {
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

		prog, err := progress.GetOrCreateFunc(tx, dossier.ID, firstStep.ID, progress.Defaults{
			Status:     domain.ProgressStatusPending,
			AssignedTo: s.Identity.ID,
			FormData:   clientinfo.FormDataSeed(info),
		})
		if err != nil {
			return err
		}

		_, err = event.CreateHistoryEvent(dossier.ID, firstStep.ID, domain.HistoryActionStepStarted,
			"", prog.Status, "", nil, &s.Identity, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if IndexDossierFunc != nil {
		IndexDossierFunc(&dossier)
	}
	return &dossier, nil
}

func DetailDossier(id types.ID, s *session.Session) (*domain.Dossier, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	return FindDossierAndCheckPerms(db, id, s)
}

func QueryDossiers(query *DossierQuery, s *session.Session) (*[]domain.Dossier, error) {
	var records []domain.Dossier
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	q := db.Where(domain.Dossier{WorldID: query.WorldID, Status: query.Status})
	visibleWorlds := s.VisibleWorlds()
	if len(visibleWorlds) == 0 {
		return &[]domain.Dossier{}, nil
	}
	q = q.Where("world_id in (?)", visibleWorlds)
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}

	return &records, nil
}

// QueryHistory returns the append-only audit trail of one dossier.
func QueryHistory(dossierId types.ID, s *session.Session) (*[]domain.DossierWorkflowHistory, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if _, err := FindDossierAndCheckPerms(db, dossierId, s); err != nil {
		return nil, err
	}

	var records []domain.DossierWorkflowHistory
	if err := db.Where(&domain.DossierWorkflowHistory{DossierID: dossierId}).
		Order("timestamp ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return &records, nil
}

func FindDossierAndCheckPerms(db *gorm.DB, id types.ID, s *session.Session) (*domain.Dossier, error) {
	var dossier domain.Dossier
	if err := db.Where(&domain.Dossier{ID: id}).First(&dossier).Error; err != nil {
		return nil, err
	}
	if s == nil || !s.Perms.HasRoleSuffix("_"+dossier.WorldID.String()) {
		return nil, bizerror.ErrForbidden
	}
	return &dossier, nil
}
