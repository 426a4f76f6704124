package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeConfiguration Code = "CONFIGURATION_ERROR"
	CodeSinkWrite     Code = "SINK_WRITE_ERROR"
	CodeSinkRead      Code = "SINK_READ_ERROR"
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeNotFound      Code = "NOT_FOUND"
	CodeDependency    Code = "DEPENDENCY_ERROR"
	CodeInternal      Code = "INTERNAL_ERROR"
)

// Metadata describes how callers should react to an error code. Nothing in the
// feed retries, so Retryable only documents intent for downstream consumers.
type Metadata struct {
	Fatal         bool
	Retryable     bool
	PublicMessage string
}

var metadataByCode = map[Code]Metadata{
	CodeConfiguration: {
		Fatal:         true,
		PublicMessage: "invalid configuration",
	},
	CodeSinkWrite: {
		PublicMessage: "artifact upload failed",
	},
	CodeSinkRead: {
		PublicMessage: "existing artifact unreadable",
	},
	CodeValidation: {
		PublicMessage: "validation failed",
	},
	CodeNotFound: {
		PublicMessage: "resource not found",
	},
	CodeDependency: {
		PublicMessage: "dependency unavailable",
	},
	CodeInternal: {
		PublicMessage: "internal error",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code of the first typed error in the chain, or CodeInternal.
func CodeOf(err error) Code {
	if te := As(err); te != nil {
		return te.Code()
	}
	return CodeInternal
}

// IsFatal reports whether err carries a code that must abort the process.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return MetadataFor(CodeOf(err)).Fatal
}
