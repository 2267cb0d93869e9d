package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/aoiforge/internal/console"
	"github.com/rpggio/aoiforge/internal/domain/activity"
	"github.com/rpggio/aoiforge/internal/domain/build"
	"github.com/rpggio/aoiforge/internal/domain/class"
	"github.com/rpggio/aoiforge/internal/domain/hub"
	"github.com/rpggio/aoiforge/internal/domain/nav"
	"github.com/rpggio/aoiforge/internal/domain/sample"
	"github.com/rpggio/aoiforge/internal/domain/wizard"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// ErrUnknownMethod indicates a tool name outside the catalog.
var ErrUnknownMethod = errors.New("unknown method")

// ErrInvalidParams indicates tool arguments that do not decode.
var ErrInvalidParams = errors.New("invalid params")

type errorMapping struct {
	target error
	code   string
	hint   string
}

var errorMappings = []errorMapping{
	{wizard.ErrValidation, "VALIDATION", "Set the current step's required field, then advance"},
	{wizard.ErrOutOfRange, "OUT_OF_RANGE", "Check the current step with wizard_get"},
	{wizard.ErrWrongStep, "WRONG_STEP", "Move the wizard to the step that offers this action"},
	{wizard.ErrFieldLocked, "FIELD_LOCKED", "The value is derived from scenario or hardware; change those instead"},
	{wizard.ErrEngineerMode, "ENGINEER_MODE_REQUIRED", "Call wizard_configure with engineer_mode=true first"},
	{wizard.ErrInvalidInput, "INVALID_INPUT", "Check allowed values in the tool schema"},
	{wizard.ErrUnknownDataset, "UNKNOWN_DATASET", "Pick a dataset_ref listed by wizard_get at the dataset step"},
	{wizard.ErrBuildRunning, "BUILD_RUNNING", "Wait for build_status to report finished"},
	{wizard.ErrClosed, "SCREEN_CLOSED", "Call get_console and retry"},
	{build.ErrAlreadyRunning, "ALREADY_RUNNING", "Poll build_status instead of starting again"},
	{build.ErrAlreadyFinished, "ALREADY_FINISHED", "Retreat and re-enter the export step for a fresh run"},
	{build.ErrNotFinished, "BUILD_NOT_FINISHED", "Poll build_status until the state is finished"},
	{build.ErrClosed, "SCREEN_CLOSED", "Re-enter the export step"},
	{hub.ErrWrongMode, "WRONG_MODE", "Use back_to_list or start_annotation to switch modes"},
	{hub.ErrNotInView, "NOT_IN_VIEW", "Adjust the list filter so the sample is visible"},
	{hub.ErrImportInProgress, "IMPORT_IN_PROGRESS", "Poll import_status until the import ends"},
	{hub.ErrClosed, "SCREEN_CLOSED", "Call get_console and retry"},
	{nav.ErrUnknownTab, "UNKNOWN_TAB", "Use one of training, samples, settings"},
	{console.ErrNotMounted, "NOT_MOUNTED", "Call navigate to mount the screen first"},
	{console.ErrClosed, "SESSION_CLOSED", "Start a new session"},
	{class.ErrUnknownClass, "UNKNOWN_CLASS", "Call list_classes for valid codes"},
	{sample.ErrSampleNotFound, "SAMPLE_NOT_FOUND", "Check ID spelling"},
	{sample.ErrUpload, "UPLOAD_FAILED", "Send a PNG or JPEG within the size limit"},
	{sample.ErrImport, "IMPORT_FAILED", "Check classes.txt, labels and the remap table"},
	{sample.ErrPackage, "PACKAGE_FAILED", "Check the package directory is writable"},
	{sample.ErrNotConfigured, "NOT_CONFIGURED", "Enable the collaborator in configuration"},
	{sample.ErrInvalidInput, "INVALID_INPUT", "Check the arguments against the tool schema"},
	{activity.ErrUnknownType, "INVALID_INPUT", "Use activity types such as navigation or annotation_saved"},
	{ErrInvalidParams, "INVALID_PARAMS", "Check the arguments against the tool schema"},
	{ErrUnknownMethod, "UNKNOWN_METHOD", "Call tools/list for available tools"},
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return &APIError{Code: m.code, Message: err.Error(), RecoveryHint: m.hint}
		}
	}
	return nil
}
