package engine

import (
	"claimflow/bizerror"
	"claimflow/domain"
	"claimflow/domain/action"
	"claimflow/domain/attachments"
	"claimflow/domain/clientinfo"
	"claimflow/domain/dossiers"
	"claimflow/domain/graph"
	"claimflow/domain/progress"
	"claimflow/event"
	"claimflow/persistence"
	"claimflow/session"
	"io"
	"sort"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	CompleteWorkflowStepFunc    = CompleteWorkflowStep
	SaveWorkflowFormDataFunc    = SaveWorkflowFormData
	GetDossierWorkflowStepsFunc = GetDossierWorkflowSteps
	GetAvailableStepsFunc       = GetAvailableSteps

	// IndexDossierFunc is installed by the indices package at bootstrap;
	// indexing is best-effort and never fails an engine operation.
	IndexDossierFunc func(dossier *domain.Dossier)
)

type UploadedFile struct {
	FieldName   string
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type StepCompletion struct {
	Decision *bool          `json:"decision"`
	Notes    string         `json:"notes"`
	FormData domain.JSONMap `json:"formData"`

	Files []UploadedFile `json:"-"`
}

type FormDataSaving struct {
	FormData domain.JSONMap `json:"formData"`

	Files []UploadedFile `json:"-"`
}

type CompleteStepResult struct {
	Progress domain.DossierWorkflowProgress `json:"progress"`
	NextStep *domain.WorkflowStep           `json:"nextStep,omitempty"`

	Completed bool `json:"completed"`
}

type SaveFormDataResult struct {
	Progress domain.DossierWorkflowProgress `json:"progress"`
}

// SaveWorkflowFormData persists step-local form state. It creates the
// progress row when absent, ensures the status is at least in_progress,
// and never completes, routes or runs auto actions.
func SaveWorkflowFormData(dossierId, stepId types.ID, saving *FormDataSaving, s *session.Session) (*SaveFormDataResult, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	dossier, err := dossiers.FindDossierAndCheckPerms(db, dossierId, s)
	if err != nil {
		return nil, err
	}
	g, err := graph.LoadWorkflowGraphFunc(s.Context, dossier.TemplateID)
	if err != nil {
		return nil, err
	}
	step, err := g.ResolveStep(stepId)
	if err != nil {
		return nil, err
	}

	var prog *domain.DossierWorkflowProgress
	err = db.Transaction(func(tx *gorm.DB) error {
		now := types.CurrentTimestamp()
		prog, err = progress.GetOrCreateFunc(tx, dossier.ID, step.ID, progress.Defaults{
			Status: domain.ProgressStatusInProgress, AssignedTo: s.Identity.ID, StartedAt: now,
		})
		if err != nil {
			return err
		}
		if err := seedFirstStepFormData(tx, g, dossier, step, prog); err != nil {
			return err
		}
		if err := storeUploads(tx, s, dossier.ID, step.ID, saving.Files); err != nil {
			return err
		}

		changes := map[string]interface{}{
			"form_data": mergeFormData(prog.FormData, saving.FormData, saving.Files),
		}
		if prog.Status == domain.ProgressStatusPending {
			changes["status"] = domain.ProgressStatusInProgress
			if (prog.StartedAt == types.Timestamp{}) {
				changes["started_at"] = now
			}
		}
		if err := tx.Model(&domain.DossierWorkflowProgress{}).
			Where(&domain.DossierWorkflowProgress{ID: prog.ID}).Update(changes).Error; err != nil {
			return err
		}

		oldStatus := prog.Status
		if err := tx.Where(&domain.DossierWorkflowProgress{ID: prog.ID}).First(prog).Error; err != nil {
			return err
		}

		_, err = event.CreateHistoryEvent(dossier.ID, step.ID, domain.HistoryActionFormDataSaved,
			oldStatus, prog.Status, "", nil, &s.Identity, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &SaveFormDataResult{Progress: *prog}, nil
}

// CompleteWorkflowStep is the only entry point that may route a dossier
// forward. A bare form submission on a decision step saves but leaves
// the row in_progress.
func CompleteWorkflowStep(dossierId, stepId types.ID, c *StepCompletion, s *session.Session) (*CompleteStepResult, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	dossier, err := dossiers.FindDossierAndCheckPerms(db, dossierId, s)
	if err != nil {
		return nil, err
	}
	g, err := graph.LoadWorkflowGraphFunc(s.Context, dossier.TemplateID)
	if err != nil {
		return nil, err
	}
	step, err := g.ResolveStep(stepId)
	if err != nil {
		return nil, err
	}

	var prog *domain.DossierWorkflowProgress
	completing := !step.RequiresDecision || c.Decision != nil

	err = db.Transaction(func(tx *gorm.DB) error {
		now := types.CurrentTimestamp()
		prog, err = progress.GetOrCreateFunc(tx, dossier.ID, step.ID, progress.Defaults{
			Status: domain.ProgressStatusInProgress, AssignedTo: s.Identity.ID, StartedAt: now,
		})
		if err != nil {
			return err
		}
		if prog.IsCompleted() {
			return bizerror.ErrProgressStateInvalid
		}
		if err := seedFirstStepFormData(tx, g, dossier, step, prog); err != nil {
			return err
		}

		// uploads land in the same transaction: a failed store rolls the
		// whole completion back instead of leaving a completed row with
		// no frontier behind it
		if err := storeUploads(tx, s, dossier.ID, step.ID, c.Files); err != nil {
			return err
		}
		if err := validateRequiredAttachment(tx, dossier.ID, step, c.Decision); err != nil {
			return err
		}

		changes := map[string]interface{}{
			"form_data": mergeFormData(prog.FormData, c.FormData, c.Files),
		}
		if (prog.StartedAt == types.Timestamp{}) {
			changes["started_at"] = now
		}
		if completing {
			changes["status"] = domain.ProgressStatusCompleted
			changes["completed_at"] = now
			if step.RequiresDecision {
				changes["decision_taken"] = c.Decision
			}
		} else if prog.Status == domain.ProgressStatusPending {
			changes["status"] = domain.ProgressStatusInProgress
		}
		if err := tx.Model(&domain.DossierWorkflowProgress{}).
			Where(&domain.DossierWorkflowProgress{ID: prog.ID}).Update(changes).Error; err != nil {
			return err
		}

		oldStatus := prog.Status
		if err := tx.Where(&domain.DossierWorkflowProgress{ID: prog.ID}).First(prog).Error; err != nil {
			return err
		}

		historyAction := domain.HistoryActionFormDataSaved
		if completing {
			historyAction = domain.HistoryActionStepCompleted
		}
		_, err = event.CreateHistoryEvent(dossier.ID, step.ID, historyAction,
			oldStatus, prog.Status, c.Notes, nil, &s.Identity, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !completing {
		return &CompleteStepResult{Progress: *prog, Completed: false}, nil
	}

	action.ExecuteAutoActionsFunc(db, s, dossier, step, prog)

	if err := applyDossierStatusEffects(db, g, dossier, step); err != nil {
		return nil, err
	}

	nextStep, err := ResolveNext(g, step, c.Decision)
	if err != nil {
		return nil, err
	}
	if nextStep != nil {
		err = db.Transaction(func(tx *gorm.DB) error {
			now := types.CurrentTimestamp()
			nextProg, err := progress.GetOrCreateFunc(tx, dossier.ID, nextStep.ID, progress.Defaults{
				Status: domain.ProgressStatusInProgress, AssignedTo: s.Identity.ID, StartedAt: now,
			})
			if err != nil {
				return err
			}
			// a row left pending by an earlier rollback is re-activated
			if nextProg.Status == domain.ProgressStatusPending {
				if err := tx.Model(&domain.DossierWorkflowProgress{}).
					Where(&domain.DossierWorkflowProgress{ID: nextProg.ID}).
					Update(map[string]interface{}{"status": domain.ProgressStatusInProgress, "started_at": now}).Error; err != nil {
					return err
				}
			}
			_, err = event.CreateHistoryEvent(dossier.ID, nextStep.ID, domain.HistoryActionStepStarted,
				"", domain.ProgressStatusInProgress, "", nil, &s.Identity, tx)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	if IndexDossierFunc != nil {
		IndexDossierFunc(dossier)
	}
	logrus.Infof("step %d of dossier %d completed by %d", step.ID, dossier.ID, s.Identity.ID)

	return &CompleteStepResult{Progress: *prog, NextStep: nextStep, Completed: true}, nil
}

// GetDossierWorkflowSteps lists the dossier's progress rows in template
// order.
func GetDossierWorkflowSteps(dossierId types.ID, s *session.Session) (*[]domain.DossierWorkflowProgress, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	dossier, err := dossiers.FindDossierAndCheckPerms(db, dossierId, s)
	if err != nil {
		return nil, err
	}
	g, err := graph.LoadWorkflowGraphFunc(s.Context, dossier.TemplateID)
	if err != nil {
		return nil, err
	}

	records, err := progress.ListByDossierFunc(db, dossier.ID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return stepNumberOf(g, records[i].StepID) < stepNumberOf(g, records[j].StepID)
	})
	return &records, nil
}

// GetAvailableSteps returns the active frontier: steps whose rows are
// pending or in_progress, or the template's first step for a dossier
// with no rows yet.
func GetAvailableSteps(dossierId types.ID, s *session.Session) (*[]domain.WorkflowStep, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	dossier, err := dossiers.FindDossierAndCheckPerms(db, dossierId, s)
	if err != nil {
		return nil, err
	}
	g, err := graph.LoadWorkflowGraphFunc(s.Context, dossier.TemplateID)
	if err != nil {
		return nil, err
	}

	records, err := progress.ListByDossierFunc(db, dossier.ID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		firstStep, err := g.FirstStep()
		if err != nil {
			return nil, err
		}
		return &[]domain.WorkflowStep{*firstStep}, nil
	}

	steps := []domain.WorkflowStep{}
	for _, step := range g.Steps() {
		for _, record := range records {
			if record.StepID == step.ID &&
				(record.Status == domain.ProgressStatusPending || record.Status == domain.ProgressStatusInProgress) {
				steps = append(steps, *step)
				break
			}
		}
	}
	return &steps, nil
}

func seedFirstStepFormData(tx *gorm.DB, g *graph.WorkflowGraph, dossier *domain.Dossier,
	step *domain.WorkflowStep, prog *domain.DossierWorkflowProgress) error {

	firstStep, err := g.FirstStep()
	if err != nil || firstStep.ID != step.ID || !prog.FormData.IsEmpty() {
		return err
	}
	info, err := clientinfo.GetClientInfoFunc(tx, dossier.ID)
	if err != nil {
		return err
	}
	return progress.SeedFormData(tx, prog, clientinfo.FormDataSeed(info))
}

// mergeFormData overlays incoming fields on the stored document; file
// fields are stripped, uploads live as attachments instead.
func mergeFormData(existing, incoming domain.JSONMap, files []UploadedFile) domain.JSONMap {
	merged := domain.JSONMap{}
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	for _, f := range files {
		delete(merged, f.FieldName)
	}
	return merged
}

// a positive decision on a step flagged as requiring an attachment needs
// at least one stored attachment row; uploads of the current call are
// stored before this check runs, so they count only once they made it
func validateRequiredAttachment(db *gorm.DB, dossierId types.ID, step *domain.WorkflowStep, decision *bool) error {
	if !step.RequiresAttachment || decision == nil || !*decision {
		return nil
	}
	count, err := attachments.CountByStepFunc(db, dossierId, step.ID)
	if err != nil {
		return err
	}
	if count == 0 {
		return &bizerror.ErrValidationFailed{Fields: map[string]string{
			"attachment": "an attachment is required before a positive decision on step " + step.Name,
		}}
	}
	return nil
}

func applyDossierStatusEffects(db *gorm.DB, g *graph.WorkflowGraph, dossier *domain.Dossier, step *domain.WorkflowStep) error {
	newStatus := ""
	if firstStep, err := g.FirstStep(); err == nil && firstStep.ID == step.ID && dossier.Status == domain.DossierStatusNew {
		newStatus = domain.DossierStatusInProgress
	}
	if step.IsTerminal {
		newStatus = domain.DossierStatusClosed
	}
	if newStatus == "" {
		return nil
	}
	if err := db.Model(&domain.Dossier{}).Where(&domain.Dossier{ID: dossier.ID}).
		Update("status", newStatus).Error; err != nil {
		return err
	}
	dossier.Status = newStatus
	return nil
}

func storeUploads(db *gorm.DB, s *session.Session, dossierId, stepId types.ID, files []UploadedFile) error {
	for _, f := range files {
		if _, err := attachments.StoreAttachmentFunc(db, s, dossierId, stepId,
			f.FileName, f.ContentType, f.Content, f.Size, false); err != nil {
			return err
		}
	}
	return nil
}

func stepNumberOf(g *graph.WorkflowGraph, stepId types.ID) int {
	step, err := g.ResolveStep(stepId)
	if err != nil {
		return int(^uint(0) >> 1) // unknown steps sort last
	}
	return step.StepNumber
}
