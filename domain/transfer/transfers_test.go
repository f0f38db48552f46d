package transfer_test

import (
	"claimflow/bizerror"
	"claimflow/domain"
	"claimflow/domain/dossiers"
	"claimflow/domain/transfer"
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
		&domain.World{}, &domain.Dossier{}, &domain.ClientInfo{},
		&domain.WorkflowTemplate{}, &domain.WorkflowStep{},
		&domain.DossierWorkflowProgress{}, &domain.DossierWorkflowHistory{},
		&domain.DossierTransfer{}).Error)
	persistence.ActiveDataSourceManager = db.DS
	*testDatabase = db
	return db.DS.GormDB(context.Background())
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func buildWorldFixture(t *testing.T, db *gorm.DB, worldId types.ID, code string, withTemplate bool) {
	now := types.CurrentTimestamp()
	assert.Nil(t, db.Create(&domain.World{ID: worldId, Code: code, Name: "world " + code, CreateTime: now}).Error)
	if !withTemplate {
		return
	}
	templateId := worldId * 100
	assert.Nil(t, db.Create(&domain.WorkflowTemplate{ID: templateId, Name: "claim handling " + code,
		WorldID: worldId, Version: 1, IsActive: true, CreateTime: now}).Error)
	assert.Nil(t, db.Create(&domain.WorkflowStep{ID: templateId + 1, TemplateID: templateId, StepNumber: 10,
		Name: "Intake", CreateTime: now}).Error)
}

func createSourceDossier(t *testing.T) *domain.Dossier {
	dossier, err := dossiers.CreateDossier(&dossiers.DossierCreation{
		Name: "water damage", WorldID: 1,
		Client: &dossiers.ClientInfoCreation{ClientName: "J. Jansen", PolicyNumber: "POL-1"},
	}, testinfra.BuildSecCtx(333, "manager_1"))
	assert.Nil(t, err)
	return dossier
}

func TestCheckTransferEligibility(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should report each ineligibility cause", func(t *testing.T) {
		defer teardown(t, testDatabase)
		db := setup(t, &testDatabase)
		buildWorldFixture(t, db, 1, "liability", true)
		buildWorldFixture(t, db, 2, "property", true)
		buildWorldFixture(t, db, 3, "travel", false)
		dossier := createSourceDossier(t)
		s := testinfra.BuildSecCtx(333, "manager_1")

		eligibility, err := transfer.CheckTransferEligibility(dossier.ID, "no-such-world", s)
		Expect(err).To(BeNil())
		Expect(eligibility.Eligible).To(BeFalse())
		Expect(eligibility.Reason).To(Equal("target world does not exist"))

		eligibility, err = transfer.CheckTransferEligibility(dossier.ID, "liability", s)
		Expect(err).To(BeNil())
		Expect(eligibility.Eligible).To(BeFalse())
		Expect(eligibility.Reason).To(Equal("dossier already belongs to the target world"))

		eligibility, err = transfer.CheckTransferEligibility(dossier.ID, "travel", s)
		Expect(err).To(BeNil())
		Expect(eligibility.Eligible).To(BeFalse())
		Expect(eligibility.Reason).To(Equal("target world has no active workflow template"))

		eligibility, err = transfer.CheckTransferEligibility(dossier.ID, "property", s)
		Expect(err).To(BeNil())
		Expect(eligibility.Eligible).To(BeTrue())
		Expect(eligibility.Reason).To(BeEmpty())
	})

	t.Run("should report an already transferred dossier", func(t *testing.T) {
		defer teardown(t, testDatabase)
		db := setup(t, &testDatabase)
		buildWorldFixture(t, db, 1, "liability", true)
		buildWorldFixture(t, db, 2, "property", true)
		dossier := createSourceDossier(t)
		s := testinfra.BuildSecCtx(333, "manager_1")

		_, err := transfer.InitiateTransfer(dossier.ID, "property", s)
		Expect(err).To(BeNil())

		eligibility, err := transfer.CheckTransferEligibility(dossier.ID, "property", s)
		Expect(err).To(BeNil())
		Expect(eligibility.Eligible).To(BeFalse())
		Expect(eligibility.Reason).To(Equal("dossier is already transferred"))
	})
}

func TestInitiateTransfer(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should reject an unknown target world", func(t *testing.T) {
		defer teardown(t, testDatabase)
		db := setup(t, &testDatabase)
		buildWorldFixture(t, db, 1, "liability", true)
		dossier := createSourceDossier(t)

		_, err := transfer.InitiateTransfer(dossier.ID, "no-such-world", testinfra.BuildSecCtx(333, "manager_1"))
		Expect(err).To(Equal(bizerror.ErrWorldNotFound))
	})

	t.Run("should move the dossier context into the target world", func(t *testing.T) {
		defer teardown(t, testDatabase)
		db := setup(t, &testDatabase)
		buildWorldFixture(t, db, 1, "liability", true)
		buildWorldFixture(t, db, 2, "property", true)
		dossier := createSourceDossier(t)
		s := testinfra.BuildSecCtx(333, "manager_1")

		indexed := []types.ID{}
		deindexed := []types.ID{}
		transfer.IndexDossierFunc = func(d *domain.Dossier) { indexed = append(indexed, d.ID) }
		transfer.DeindexDossierFunc = func(id types.ID) { deindexed = append(deindexed, id) }
		defer func() { transfer.IndexDossierFunc = nil; transfer.DeindexDossierFunc = nil }()

		record, err := transfer.InitiateTransfer(dossier.ID, "property", s)
		Expect(err).To(BeNil())
		Expect(record.Status).To(Equal(domain.TransferStatusCompleted))
		Expect(record.SourceDossierID).To(Equal(dossier.ID))
		Expect(record.SourceWorldID).To(Equal(types.ID(1)))
		Expect(record.TargetWorldID).To(Equal(types.ID(2)))
		Expect(record.TargetDossierID).ToNot(BeZero())
		Expect(record.CompletedAt.IsZero()).To(BeFalse())

		source := domain.Dossier{}
		Expect(db.Where(&domain.Dossier{ID: dossier.ID}).First(&source).Error).To(BeNil())
		Expect(source.Status).To(Equal(domain.DossierStatusTransferred))

		target := domain.Dossier{}
		Expect(db.Where(&domain.Dossier{ID: record.TargetDossierID}).First(&target).Error).To(BeNil())
		Expect(target.WorldID).To(Equal(types.ID(2)))
		Expect(target.TemplateID).To(Equal(types.ID(200)))
		Expect(target.Status).To(Equal(domain.DossierStatusNew))
		Expect(target.Name).To(Equal(source.Name))

		// client snapshot is copied, first step opened with seeded form
		info := domain.ClientInfo{}
		Expect(db.Where(&domain.ClientInfo{DossierID: target.ID}).First(&info).Error).To(BeNil())
		Expect(info.ClientName).To(Equal("J. Jansen"))

		prog := domain.DossierWorkflowProgress{}
		Expect(db.Where(&domain.DossierWorkflowProgress{DossierID: target.ID}).First(&prog).Error).To(BeNil())
		Expect(prog.StepID).To(Equal(types.ID(201)))
		Expect(prog.Status).To(Equal(domain.ProgressStatusPending))
		Expect(prog.FormData["clientName"]).To(Equal("J. Jansen"))

		history := domain.DossierWorkflowHistory{}
		Expect(db.Where(&domain.DossierWorkflowHistory{DossierID: dossier.ID,
			Action: domain.HistoryActionTransferCompleted}).First(&history).Error).To(BeNil())
		Expect(history.NewStatus).To(Equal(domain.DossierStatusTransferred))

		// the search index follows the move
		Expect(deindexed).To(Equal([]types.ID{dossier.ID}))
		Expect(indexed).To(Equal([]types.ID{record.TargetDossierID}))
	})

	t.Run("should record a failed transfer on its row without touching the source", func(t *testing.T) {
		defer teardown(t, testDatabase)
		db := setup(t, &testDatabase)
		buildWorldFixture(t, db, 1, "liability", true)
		buildWorldFixture(t, db, 2, "property", false)
		dossier := createSourceDossier(t)
		s := testinfra.BuildSecCtx(333, "manager_1")

		deindexed := []types.ID{}
		transfer.DeindexDossierFunc = func(id types.ID) { deindexed = append(deindexed, id) }
		defer func() { transfer.DeindexDossierFunc = nil }()

		record, err := transfer.InitiateTransfer(dossier.ID, "property", s)
		Expect(err).To(BeNil())
		Expect(record.Status).To(Equal(domain.TransferStatusFailed))
		Expect(record.ErrorMessage).To(Equal("target world property has no active workflow template"))
		Expect(record.TargetDossierID).To(BeZero())

		source := domain.Dossier{}
		Expect(db.Where(&domain.Dossier{ID: dossier.ID}).First(&source).Error).To(BeNil())
		Expect(source.Status).To(Equal(domain.DossierStatusNew))

		// no dangling target dossier
		var count int
		Expect(db.Model(&domain.Dossier{}).Count(&count).Error).To(BeNil())
		Expect(count).To(Equal(1))

		// a failed transfer keeps the source in the search index
		Expect(deindexed).To(BeEmpty())

		// a failed transfer may be retried
		_, err = transfer.InitiateTransfer(dossier.ID, "property", s)
		Expect(err).To(BeNil())
	})

	t.Run("should reject transferring a transferred dossier again", func(t *testing.T) {
		defer teardown(t, testDatabase)
		db := setup(t, &testDatabase)
		buildWorldFixture(t, db, 1, "liability", true)
		buildWorldFixture(t, db, 2, "property", true)
		buildWorldFixture(t, db, 3, "travel", true)
		dossier := createSourceDossier(t)
		s := testinfra.BuildSecCtx(333, "manager_1")

		_, err := transfer.InitiateTransfer(dossier.ID, "property", s)
		Expect(err).To(BeNil())

		_, err = transfer.InitiateTransfer(dossier.ID, "travel", s)
		Expect(err).To(Equal(bizerror.ErrDossierTransferred))
	})
}
