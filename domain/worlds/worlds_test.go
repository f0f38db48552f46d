package worlds_test

import (
	"claimflow/domain"
	"claimflow/domain/worlds"
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
	assert.Nil(t, db.DS.GormDB(context.Background()).AutoMigrate(&domain.World{}).Error)
	persistence.ActiveDataSourceManager = db.DS
	*testDatabase = db
	return db.DS.GormDB(context.Background())
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestQueryWorlds(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should only list worlds visible to the session", func(t *testing.T) {
		defer teardown(t, testDatabase)
		db := setup(t, &testDatabase)

		now := types.CurrentTimestamp()
		assert.Nil(t, db.Create(&domain.World{ID: 1, Code: "liability", Name: "Liability", CreateTime: now}).Error)
		assert.Nil(t, db.Create(&domain.World{ID: 2, Code: "property", Name: "Property", CreateTime: now}).Error)

		records, err := worlds.QueryWorlds(testinfra.BuildSecCtx(333, "manager_1"))
		Expect(err).To(BeNil())
		Expect(len(*records)).To(Equal(1))
		Expect((*records)[0].Code).To(Equal("liability"))

		records, err = worlds.QueryWorlds(testinfra.BuildSecCtx(333, "manager_1", "viewer_2"))
		Expect(err).To(BeNil())
		Expect(len(*records)).To(Equal(2))

		records, err = worlds.QueryWorlds(testinfra.BuildSecCtx(333))
		Expect(err).To(BeNil())
		Expect(len(*records)).To(Equal(0))
	})
}

func TestFindWorldByCode(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should return nil without error for an unknown code", func(t *testing.T) {
		defer teardown(t, testDatabase)
		db := setup(t, &testDatabase)

		world, err := worlds.FindWorldByCode(db, "no-such-world")
		Expect(err).To(BeNil())
		Expect(world).To(BeNil())

		assert.Nil(t, db.Create(&domain.World{ID: 1, Code: "liability", Name: "Liability",
			CreateTime: types.CurrentTimestamp()}).Error)
		world, err = worlds.FindWorldByCode(db, "liability")
		Expect(err).To(BeNil())
		Expect(world.ID).To(Equal(types.ID(1)))
	})
}
