package domain

import (
	"github.com/fundwit/go-commons/types"
)

// Attachment rows key uploaded files and generated documents to a
// dossier step; the bytes live in the object bucket under ObjectKey.
type Attachment struct {
	ID types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`

	DossierID types.ID `json:"dossierId" gorm:"index" sql:"type:BIGINT UNSIGNED NOT NULL"`
	StepID    types.ID `json:"stepId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	FileName    string `json:"fileName"`
	ObjectKey   string `json:"objectKey"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Generated   bool   `json:"generated"`

	UploaderID types.ID        `json:"uploaderId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

// Notification rows are produced by create_notification auto-actions.
type Notification struct {
	ID types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`

	DossierID types.ID `json:"dossierId" gorm:"index" sql:"type:BIGINT UNSIGNED NOT NULL"`
	StepID    types.ID `json:"stepId" sql:"type:BIGINT UNSIGNED NOT NULL"`

	Recipient types.ID `json:"recipient"`
	Message   string   `json:"message" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}
