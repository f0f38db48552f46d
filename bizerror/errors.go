package bizerror

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")

	ErrNoStepsConfigured     = errors.New("no steps configured")
	ErrInvalidGraphReference = errors.New("invalid graph reference")
	ErrProgressStateInvalid  = errors.New("progress state invalid")
	ErrRollbackNotAllowed    = errors.New("rollback not allowed")
	ErrWorldNotFound         = errors.New("world not found")
	ErrTemplateNotActive     = errors.New("template not active")
	ErrDossierTransferred    = errors.New("dossier already transferred")
)

type BizError interface {
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *BizErrorDetail {
	message := "common.bad_param"
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: message, Data: nil}
}

// ErrValidationFailed carries field-level messages, e.g. a required
// attachment missing before a positive decision.
type ErrValidationFailed struct {
	Fields map[string]string
}

func (e *ErrValidationFailed) Error() string {
	return "workflow.validation_failed"
}
func (e *ErrValidationFailed) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusUnprocessableEntity, Code: "workflow.validation_failed",
		Message: "validation failed", Data: e.Fields}
}
