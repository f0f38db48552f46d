package worlds

import (
	"claimflow/domain"
	"claimflow/persistence"
	"claimflow/session"
	"errors"

	"github.com/jinzhu/gorm"
)

var (
	QueryWorldsFunc     = QueryWorlds
	FindWorldByCodeFunc = FindWorldByCode
)

// QueryWorlds lists the worlds visible to the session.
func QueryWorlds(s *session.Session) (*[]domain.World, error) {
	visibleWorlds := s.VisibleWorlds()
	if len(visibleWorlds) == 0 {
		return &[]domain.World{}, nil
	}

	var records []domain.World
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where("id in (?)", visibleWorlds).Find(&records).Error; err != nil {
		return nil, err
	}
	return &records, nil
}

// FindWorldByCode returns nil without error when no world carries the
// code.
func FindWorldByCode(db *gorm.DB, code string) (*domain.World, error) {
	world := domain.World{}
	if err := db.Where(&domain.World{Code: code}).First(&world).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &world, nil
}
