package action

import (
	"bytes"
	"claimflow/client/s3"
	"claimflow/domain"
	"claimflow/domain/attachments"
	"claimflow/domain/clientinfo"
	"claimflow/misc"
	"claimflow/renderer"
	"claimflow/session"
	"fmt"
	"path"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	ExecuteAutoActionsFunc = ExecuteAutoActions
)

// DocumentAuthorizations maps a document type to the step name patterns
// allowed to generate it. Unknown document types are no-ops.
var DocumentAuthorizations = map[string][]string{
	"claim_confirmation": {"Intake*", "Registratie*"},
	"coverage_decision":  {"*beoordeling*", "Decision*"},
	"settlement_letter":  {"Afwikkeling*", "Settlement*"},
	"closing_statement":  {"*afsluiting*", "Closing*"},
}

// ExecuteAutoActions runs a step's declared actions in order. Each
// action's failure is isolated: logged and skipped, never surfaced to
// the completion call that triggered it.
func ExecuteAutoActions(db *gorm.DB, s *session.Session, dossier *domain.Dossier,
	step *domain.WorkflowStep, prog *domain.DossierWorkflowProgress) {

	for _, spec := range step.AutoActions {
		var err error
		switch spec.Type {
		case domain.ActionGenerateDocument:
			err = generateDocument(db, s, dossier, step, prog, spec)
		case domain.ActionTransferDocument:
			err = transferDocument(db, s, dossier, step, spec)
		case domain.ActionCreateNotification:
			err = createNotification(db, dossier, step, prog, spec)
		case domain.ActionUpdateDossierStatus:
			err = updateDossierStatus(db, dossier, spec)
		default:
			logrus.Warnf("auto action of step %d has unknown type %s", step.ID, spec.Type)
			continue
		}

		if err != nil {
			logrus.Warnf("auto action %s of step %d on dossier %d failed: %v", spec.Type, step.ID, dossier.ID, err)
		}
	}
}

func generateDocument(db *gorm.DB, s *session.Session, dossier *domain.Dossier,
	step *domain.WorkflowStep, prog *domain.DossierWorkflowProgress, spec domain.ActionSpec) error {

	if !DocumentTypeAllowed(spec.DocumentType, step.Name) {
		logrus.Warnf("document type %q is not allowed on step %q, skipped", spec.DocumentType, step.Name)
		return nil
	}

	info, err := clientinfo.GetClientInfoFunc(db, dossier.ID)
	if err != nil {
		return err
	}
	renderContext := map[string]interface{}{
		"dossier": map[string]interface{}{
			"id":         dossier.ID.String(),
			"identifier": dossier.Identifier,
			"name":       dossier.Name,
			"status":     dossier.Status,
		},
		"formData": map[string]interface{}(prog.FormData),
	}
	if info != nil {
		renderContext["client"] = map[string]interface{}{
			"name":         info.ClientName,
			"email":        info.Email,
			"phone":        info.Phone,
			"policyNumber": info.PolicyNumber,
			"address":      info.Address,
		}
	}

	documentBytes, err := renderer.RenderFunc(spec.DocumentType, renderContext)
	if err != nil {
		return err
	}

	fileName := fmt.Sprintf("%s-%s.pdf", spec.DocumentType, dossier.Identifier)
	_, err = attachments.StoreAttachmentFunc(db, s, dossier.ID, step.ID,
		fileName, "application/pdf", bytes.NewReader(documentBytes), int64(len(documentBytes)), true)
	return err
}

// DocumentTypeAllowed matches the step name against the authorization
// table's patterns for the document type.
func DocumentTypeAllowed(documentType, stepName string) bool {
	patterns, known := DocumentAuthorizations[documentType]
	if !known {
		return false
	}
	for _, pattern := range patterns {
		if matched, err := path.Match(pattern, stepName); err == nil && matched {
			return true
		}
	}
	return false
}

// transferDocument copies the step's most recent attachment into the
// recipient's outbox prefix of the bucket.
func transferDocument(db *gorm.DB, s *session.Session, dossier *domain.Dossier,
	step *domain.WorkflowStep, spec domain.ActionSpec) error {

	records, err := attachments.ListByStepFunc(db, dossier.ID, step.ID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no attachment on step %d to transfer to %q", step.ID, spec.To)
	}
	latest := records[len(records)-1]

	content, err := s3.GetObjectFunc(latest.ObjectKey, s)
	if err != nil {
		return err
	}
	defer content.Close()

	outboxKey := fmt.Sprintf("outbox/%s/%s-%s", spec.To, dossier.Identifier, latest.FileName)
	return s3.PutObjectFunc(outboxKey, content, s)
}

func createNotification(db *gorm.DB, dossier *domain.Dossier, step *domain.WorkflowStep,
	prog *domain.DossierWorkflowProgress, spec domain.ActionSpec) error {

	record := domain.Notification{
		ID:        misc.NextId(idWorker),
		DossierID: dossier.ID,
		StepID:    step.ID,

		Recipient: prog.AssignedTo,
		Message:   spec.Message,

		CreateTime: types.CurrentTimestamp(),
	}
	return db.Create(&record).Error
}

func updateDossierStatus(db *gorm.DB, dossier *domain.Dossier, spec domain.ActionSpec) error {
	if spec.Status == "" {
		return fmt.Errorf("update_dossier_status on dossier %d without a status", dossier.ID)
	}
	if err := db.Model(&domain.Dossier{}).Where(&domain.Dossier{ID: dossier.ID}).
		Update("status", spec.Status).Error; err != nil {
		return err
	}
	dossier.Status = spec.Status
	return nil
}
