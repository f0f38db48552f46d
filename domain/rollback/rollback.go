package rollback

import (
	"claimflow/bizerror"
	"claimflow/domain"
	"claimflow/domain/dossiers"
	"claimflow/domain/graph"
	"claimflow/domain/progress"
	"claimflow/event"
	"claimflow/persistence"
	"claimflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	CanRollbackStepFunc      = CanRollbackStep
	RollbackWorkflowStepFunc = RollbackWorkflowStep
)

type RollbackCheck struct {
	CanRollback bool   `json:"canRollback"`
	Reason      string `json:"reason,omitempty"`
}

type RollbackResult struct {
	Progress        domain.DossierWorkflowProgress   `json:"progress"`
	CascadedSteps   []domain.DossierWorkflowProgress `json:"cascadedSteps"`
	RollbackHistory []domain.DossierWorkflowHistory  `json:"rollbackHistory"`
}

// CanRollback is the eligibility rule for a *direct* rollback request.
// Terminal-ness only protects the directly requested step; cascades
// landing on a terminal step still roll it back.
func CanRollback(prog *domain.DossierWorkflowProgress, step *domain.WorkflowStep) (bool, string) {
	if prog.IsRolledBack() && !prog.IsCompleted() {
		return false, "step is already rolled back"
	}
	if !prog.IsCompleted() {
		return false, "step is not completed"
	}
	if step.IsTerminal {
		return false, "step is a terminal step of the template"
	}
	return true, ""
}

// ComputeCascade selects the downstream rollback set over the dossier's
// already-fetched rows: every other completed, not-rolled-back row whose
// step number is strictly greater than the rolled step's. Pure, no
// store round-trips; application order cannot change the outcome since
// every member only ever becomes pending.
func ComputeCascade(rows []domain.DossierWorkflowProgress, g *graph.WorkflowGraph, rolled *domain.DossierWorkflowProgress) []domain.DossierWorkflowProgress {
	rolledStep, err := g.ResolveStep(rolled.StepID)
	if err != nil {
		return nil
	}

	cascade := []domain.DossierWorkflowProgress{}
	for _, row := range rows {
		if row.ID == rolled.ID || !row.IsCompleted() {
			continue
		}
		step, err := g.ResolveStep(row.StepID)
		if err != nil {
			continue
		}
		if step.StepNumber > rolledStep.StepNumber {
			cascade = append(cascade, row)
		}
	}
	return cascade
}

func CanRollbackStep(dossierId, stepId types.ID, s *session.Session) (*RollbackCheck, error) {
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

	prog, err := progress.FindByDossierAndStepFunc(db, dossier.ID, step.ID)
	if err != nil {
		return nil, err
	}
	if prog == nil {
		return &RollbackCheck{CanRollback: false, Reason: "step has no progress record"}, nil
	}

	ok, reason := CanRollback(prog, step)
	return &RollbackCheck{CanRollback: ok, Reason: reason}, nil
}

// RollbackWorkflowStep reverts a completed step to pending and cascades
// to every completed downstream step. History is additive: the rows are
// never deleted and rollbackCount keeps growing across cycles.
func RollbackWorkflowStep(dossierId, stepId types.ID, reason string, s *session.Session) (*RollbackResult, error) {
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

	result := RollbackResult{CascadedSteps: []domain.DossierWorkflowProgress{}}
	err = db.Transaction(func(tx *gorm.DB) error {
		rows, err := progress.ListByDossierFunc(tx, dossier.ID)
		if err != nil {
			return err
		}
		var target *domain.DossierWorkflowProgress
		for i := range rows {
			if rows[i].StepID == step.ID {
				target = &rows[i]
				break
			}
		}
		if target == nil {
			return bizerror.ErrNotFound
		}
		if ok, _ := CanRollback(target, step); !ok {
			return bizerror.ErrRollbackNotAllowed
		}

		cascade := ComputeCascade(rows, g, target)

		updated, history, err := applyRollback(tx, target, domain.HistoryActionStepRolledBack, reason, s)
		if err != nil {
			return err
		}
		result.Progress = *updated
		result.RollbackHistory = append(result.RollbackHistory, *history)

		cascadeReason := "automatic, caused by rollback of step " + step.Name
		for i := range cascade {
			updated, history, err := applyRollback(tx, &cascade[i], domain.HistoryActionCascadeRollback, cascadeReason, s)
			if err != nil {
				return err
			}
			result.CascadedSteps = append(result.CascadedSteps, *updated)
			result.RollbackHistory = append(result.RollbackHistory, *history)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.Infof("step %d of dossier %d rolled back with %d cascaded steps", step.ID, dossier.ID, len(result.CascadedSteps))
	return &result, nil
}

func applyRollback(tx *gorm.DB, prog *domain.DossierWorkflowProgress, action, reason string, s *session.Session) (
	*domain.DossierWorkflowProgress, *domain.DossierWorkflowHistory, error) {

	now := types.CurrentTimestamp()
	changes := map[string]interface{}{
		"status":          domain.ProgressStatusPending,
		"completed_at":    types.Timestamp{},
		"decision_taken":  nil,
		"rollback_reason": reason,
		"rolled_back_at":  now,
		"rolled_back_by":  s.Identity.ID,
		"rollback_count":  prog.RollbackCount + 1,
	}
	if err := tx.Model(&domain.DossierWorkflowProgress{}).
		Where(&domain.DossierWorkflowProgress{ID: prog.ID}).Update(changes).Error; err != nil {
		return nil, nil, err
	}

	updated := domain.DossierWorkflowProgress{}
	if err := tx.Where(&domain.DossierWorkflowProgress{ID: prog.ID}).First(&updated).Error; err != nil {
		return nil, nil, err
	}

	history, err := event.CreateHistoryEvent(prog.DossierID, prog.StepID, action,
		domain.ProgressStatusCompleted, domain.ProgressStatusPending, reason, nil, &s.Identity, tx)
	if err != nil {
		return nil, nil, err
	}
	return &updated, history, nil
}
