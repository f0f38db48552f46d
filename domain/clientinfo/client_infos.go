package clientinfo

import (
	"claimflow/domain"
	"errors"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	GetClientInfoFunc = GetClientInfo
)

// GetClientInfo returns nil without error when the dossier has no client
// snapshot recorded yet.
func GetClientInfo(db *gorm.DB, dossierId types.ID) (*domain.ClientInfo, error) {
	info := domain.ClientInfo{}
	if err := db.Where(&domain.ClientInfo{DossierID: dossierId}).First(&info).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &info, nil
}

// FormDataSeed maps the client snapshot onto the named pre-population
// fields of a first step's form data.
func FormDataSeed(info *domain.ClientInfo) domain.JSONMap {
	if info == nil {
		return nil
	}
	return domain.JSONMap{
		"clientName":   info.ClientName,
		"email":        info.Email,
		"phone":        info.Phone,
		"policyNumber": info.PolicyNumber,
		"address":      info.Address,
	}
}
