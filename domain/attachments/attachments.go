package attachments

import (
	"claimflow/client/s3"
	"claimflow/domain"
	"claimflow/misc"
	"claimflow/session"
	"fmt"
	"io"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	StoreAttachmentFunc = StoreAttachment
	ListByStepFunc      = ListByStep
	CountByStepFunc     = CountByStep
)

// StoreAttachment puts the content into the dossier bucket and records
// the attachment row keyed to the step.
func StoreAttachment(db *gorm.DB, s *session.Session, dossierId, stepId types.ID,
	fileName, contentType string, content io.Reader, size int64, generated bool) (*domain.Attachment, error) {

	id := misc.NextId(idWorker)
	objectKey := fmt.Sprintf("dossiers/%s/steps/%s/%s-%s", dossierId.String(), stepId.String(), id.String(), fileName)

	if err := s3.PutObjectFunc(objectKey, content, s); err != nil {
		return nil, err
	}

	record := domain.Attachment{
		ID:        id,
		DossierID: dossierId,
		StepID:    stepId,

		FileName:    fileName,
		ObjectKey:   objectKey,
		ContentType: contentType,
		Size:        size,
		Generated:   generated,

		UploaderID: s.Identity.ID,
		CreateTime: types.CurrentTimestamp(),
	}
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func ListByStep(db *gorm.DB, dossierId, stepId types.ID) ([]domain.Attachment, error) {
	var records []domain.Attachment
	if err := db.Where(&domain.Attachment{DossierID: dossierId, StepID: stepId}).
		Order("create_time ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func CountByStep(db *gorm.DB, dossierId, stepId types.ID) (int, error) {
	count := 0
	if err := db.Model(&domain.Attachment{}).
		Where(&domain.Attachment{DossierID: dossierId, StepID: stepId}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
