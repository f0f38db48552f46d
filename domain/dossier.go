package domain

import (
	"github.com/fundwit/go-commons/types"
)

const (
	DossierStatusNew         = "new"
	DossierStatusInProgress  = "in_progress"
	DossierStatusClosed      = "closed"
	DossierStatusTransferred = "transferred"
)

type Dossier struct {
	ID         types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Identifier string   `json:"identifier" gorm:"unique_index"`
	Name       string   `json:"name"`

	WorldID    types.ID `json:"worldId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	TemplateID types.ID `json:"templateId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Status     string   `json:"status"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type World struct {
	ID   types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Code string   `json:"code" gorm:"unique_index"`
	Name string   `json:"name"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

// ClientInfo is the client snapshot recorded on a dossier; its named
// fields seed the first workflow step's form data.
type ClientInfo struct {
	ID        types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	DossierID types.ID `json:"dossierId" gorm:"unique_index" sql:"type:BIGINT UNSIGNED NOT NULL"`

	ClientName   string `json:"clientName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PolicyNumber string `json:"policyNumber"`
	Address      string `json:"address"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}
