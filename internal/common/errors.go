package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors. Kind is one of the
// sentinel errors below and is matched by errors.Is alongside Cause.
type AppError struct {
	Code    string
	Message string
	Kind    error
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Error kinds of the extraction pipeline.
var (
	ErrConfiguration         = errors.New("configuration unavailable")
	ErrUpload                = errors.New("upload failed")
	ErrOCRProcessing         = errors.New("ocr processing failed")
	ErrExtraction            = errors.New("extraction failed")
	ErrListParse             = errors.New("project list parse failed")
	ErrNoProjectsFound       = errors.New("no projects found")
	ErrPerProjectParse       = errors.New("project parse failed")
	ErrNoExtractableProjects = errors.New("no extractable projects")
	ErrNotFound              = errors.New("resource not found")
	ErrInvalidInput          = errors.New("invalid input")
)

var kindCodes = map[error]string{
	ErrConfiguration:         "CONFIG_ERROR",
	ErrUpload:                "UPLOAD_ERROR",
	ErrOCRProcessing:         "OCR_PROCESSING_ERROR",
	ErrExtraction:            "EXTRACTION_ERROR",
	ErrListParse:             "LIST_PARSE_ERROR",
	ErrNoProjectsFound:       "NO_PROJECTS_FOUND",
	ErrPerProjectParse:       "PER_PROJECT_PARSE_ERROR",
	ErrNoExtractableProjects: "NO_EXTRACTABLE_PROJECTS",
	ErrNotFound:              "NOT_FOUND",
	ErrInvalidInput:          "INVALID_INPUT",
}

// NewAppError builds an AppError whose code is derived from kind.
func NewAppError(kind error, message string, cause error) *AppError {
	code, ok := kindCodes[kind]
	if !ok {
		code = "INTERNAL_ERROR"
	}
	return &AppError{
		Code:    code,
		Message: message,
		Kind:    kind,
		Cause:   cause,
	}
}

func ConfigurationError(message string, cause error) error {
	return NewAppError(ErrConfiguration, message, cause)
}

func UploadError(message string, cause error) error {
	return NewAppError(ErrUpload, message, cause)
}

func OCRProcessingError(message string, cause error) error {
	return NewAppError(ErrOCRProcessing, message, cause)
}

func ExtractionError(message string, cause error) error {
	return NewAppError(ErrExtraction, message, cause)
}

func ListParseError(message string, cause error) error {
	return NewAppError(ErrListParse, message, cause)
}

func NoProjectsFoundError(message string) error {
	return NewAppError(ErrNoProjectsFound, message, nil)
}

func PerProjectParseError(message string, cause error) error {
	return NewAppError(ErrPerProjectParse, message, cause)
}

func NoExtractableProjectsError(message string) error {
	return NewAppError(ErrNoExtractableProjects, message, nil)
}

// UserMessage returns the human-readable part of err, without the code prefix.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// GRPCCode maps an error kind onto a gRPC status code.
func GRPCCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrConfiguration):
		return codes.FailedPrecondition
	case errors.Is(err, ErrInvalidInput):
		return codes.InvalidArgument
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrUpload), errors.Is(err, ErrOCRProcessing), errors.Is(err, ErrExtraction):
		return codes.Unavailable
	case errors.Is(err, ErrListParse), errors.Is(err, ErrPerProjectParse):
		return codes.DataLoss
	case errors.Is(err, ErrNoProjectsFound), errors.Is(err, ErrNoExtractableProjects):
		return codes.NotFound
	default:
		return codes.Internal
	}
}

// Status converts err into a gRPC status carrying the user message.
func Status(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}
	return status.New(GRPCCode(err), UserMessage(err))
}
