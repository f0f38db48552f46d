package dossiers_test

import (
	"claimflow/bizerror"
	"claimflow/domain"
	"claimflow/domain/dossiers"
	"claimflow/persistence"
	"claimflow/testinfra"
	"context"
	"testing"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) *gorm.DB {
	db := testinfra.StartMysqlTestDatabase("claimflow")
	assert.Nil(t, db.DS.GormDB(context.Background()).AutoMigrate(
		&domain.Dossier{}, &domain.ClientInfo{}, &domain.WorkflowTemplate{}, &domain.WorkflowStep{},
		&domain.DossierWorkflowProgress{}, &domain.DossierWorkflowHistory{}).Error)
	persistence.ActiveDataSourceManager = db.DS
	*testDatabase = db
	return db.DS.GormDB(context.Background())
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func buildTemplateFixture(t *testing.T, db *gorm.DB, worldId types.ID, templateId types.ID) {
	now := types.CurrentTimestamp()
	assert.Nil(t, db.Create(&domain.WorkflowTemplate{ID: templateId, Name: "claim handling", WorldID: worldId,
		Version: 1, IsActive: true, CreateTime: now}).Error)
	assert.Nil(t, db.Create(&domain.WorkflowStep{ID: templateId + 1, TemplateID: templateId, StepNumber: 10,
		Name: "Intake", CreateTime: now}).Error)
	assert.Nil(t, db.Create(&domain.WorkflowStep{ID: templateId + 2, TemplateID: templateId, StepNumber: 20,
		Name: "Assessment", CreateTime: now}).Error)
}

func TestCreateDossier(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should forbid creation in a world without a role", func(t *testing.T) {
		defer teardown(t, testDatabase)
		db := setup(t, &testDatabase)
		buildTemplateFixture(t, db, 1, 100)

		dossier, err := dossiers.CreateDossier(&dossiers.DossierCreation{Name: "water damage", WorldID: 1},
			testinfra.BuildSecCtx(333, "manager_2"))
		Expect(dossier).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should reject a world without an active template", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		dossier, err := dossiers.CreateDossier(&dossiers.DossierCreation{Name: "water damage", WorldID: 1},
			testinfra.BuildSecCtx(333, "manager_1"))
		Expect(dossier).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrTemplateNotActive))
	})

	t.Run("should create the dossier with its first step open", func(t *testing.T) {
		defer teardown(t, testDatabase)
		db := setup(t, &testDatabase)
		buildTemplateFixture(t, db, 1, 100)

		indexed := []types.ID{}
		dossiers.IndexDossierFunc = func(d *domain.Dossier) { indexed = append(indexed, d.ID) }
		defer func() { dossiers.IndexDossierFunc = nil }()

		dossier, err := dossiers.CreateDossier(&dossiers.DossierCreation{
			Name: "water damage", WorldID: 1,
			Client: &dossiers.ClientInfoCreation{ClientName: "J. Jansen", Email: "j.jansen@example.com",
				PolicyNumber: "POL-1"},
		}, testinfra.BuildSecCtx(333, "manager_1"))
		Expect(err).To(BeNil())
		Expect(dossier.ID).ToNot(BeZero())
		Expect(dossier.Identifier).To(Equal("CLM-" + dossier.ID.String()))
		Expect(dossier.Status).To(Equal(domain.DossierStatusNew))
		Expect(dossier.TemplateID).To(Equal(types.ID(100)))
		Expect(dossier.CreatorID).To(Equal(types.ID(333)))

		info := domain.ClientInfo{}
		Expect(db.Where(&domain.ClientInfo{DossierID: dossier.ID}).First(&info).Error).To(BeNil())
		Expect(info.ClientName).To(Equal("J. Jansen"))

		prog := domain.DossierWorkflowProgress{}
		Expect(db.Where(&domain.DossierWorkflowProgress{DossierID: dossier.ID}).First(&prog).Error).To(BeNil())
		Expect(prog.StepID).To(Equal(types.ID(101)))
		Expect(prog.Status).To(Equal(domain.ProgressStatusPending))
		Expect(prog.FormData["clientName"]).To(Equal("J. Jansen"))
		Expect(prog.FormData["policyNumber"]).To(Equal("POL-1"))

		history := domain.DossierWorkflowHistory{}
		Expect(db.Where(&domain.DossierWorkflowHistory{DossierID: dossier.ID}).First(&history).Error).To(BeNil())
		Expect(history.Action).To(Equal(domain.HistoryActionStepStarted))

		// the new dossier went to the search index
		Expect(indexed).To(Equal([]types.ID{dossier.ID}))
	})
}

func TestQueryDossiers(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should only return dossiers of visible worlds", func(t *testing.T) {
		defer teardown(t, testDatabase)
		db := setup(t, &testDatabase)
		buildTemplateFixture(t, db, 1, 100)
		buildTemplateFixture(t, db, 2, 200)

		_, err := dossiers.CreateDossier(&dossiers.DossierCreation{Name: "world one dossier", WorldID: 1},
			testinfra.BuildSecCtx(333, "manager_1"))
		Expect(err).To(BeNil())
		_, err = dossiers.CreateDossier(&dossiers.DossierCreation{Name: "world two dossier", WorldID: 2},
			testinfra.BuildSecCtx(333, "manager_2"))
		Expect(err).To(BeNil())

		records, err := dossiers.QueryDossiers(&dossiers.DossierQuery{}, testinfra.BuildSecCtx(333, "manager_1"))
		Expect(err).To(BeNil())
		Expect(len(*records)).To(Equal(1))
		Expect((*records)[0].Name).To(Equal("world one dossier"))

		records, err = dossiers.QueryDossiers(&dossiers.DossierQuery{}, testinfra.BuildSecCtx(333))
		Expect(err).To(BeNil())
		Expect(len(*records)).To(Equal(0))
	})

	t.Run("should filter by status", func(t *testing.T) {
		defer teardown(t, testDatabase)
		db := setup(t, &testDatabase)
		buildTemplateFixture(t, db, 1, 100)

		_, err := dossiers.CreateDossier(&dossiers.DossierCreation{Name: "water damage", WorldID: 1},
			testinfra.BuildSecCtx(333, "manager_1"))
		Expect(err).To(BeNil())

		records, err := dossiers.QueryDossiers(&dossiers.DossierQuery{Status: domain.DossierStatusClosed},
			testinfra.BuildSecCtx(333, "manager_1"))
		Expect(err).To(BeNil())
		Expect(len(*records)).To(Equal(0))

		records, err = dossiers.QueryDossiers(&dossiers.DossierQuery{Status: domain.DossierStatusNew},
			testinfra.BuildSecCtx(333, "manager_1"))
		Expect(err).To(BeNil())
		Expect(len(*records)).To(Equal(1))
	})
}

func TestDetailDossier(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should check permissions on detail access", func(t *testing.T) {
		defer teardown(t, testDatabase)
		db := setup(t, &testDatabase)
		buildTemplateFixture(t, db, 1, 100)

		created, err := dossiers.CreateDossier(&dossiers.DossierCreation{Name: "water damage", WorldID: 1},
			testinfra.BuildSecCtx(333, "manager_1"))
		Expect(err).To(BeNil())

		detail, err := dossiers.DetailDossier(created.ID, testinfra.BuildSecCtx(333, "manager_1"))
		Expect(err).To(BeNil())
		Expect(detail.Name).To(Equal("water damage"))

		_, err = dossiers.DetailDossier(created.ID, testinfra.BuildSecCtx(444, "viewer_2"))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})
}

func TestQueryHistory(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should return the audit trail in time order", func(t *testing.T) {
		defer teardown(t, testDatabase)
		db := setup(t, &testDatabase)
		buildTemplateFixture(t, db, 1, 100)
		s := testinfra.BuildSecCtx(333, "manager_1")

		created, err := dossiers.CreateDossier(&dossiers.DossierCreation{Name: "water damage", WorldID: 1}, s)
		Expect(err).To(BeNil())

		records, err := dossiers.QueryHistory(created.ID, s)
		Expect(err).To(BeNil())
		Expect(len(*records)).To(Equal(1))
		Expect((*records)[0].Action).To(Equal(domain.HistoryActionStepStarted))
	})
}
