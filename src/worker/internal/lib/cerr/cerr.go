package cerr

import (
	"fmt"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

type F map[string]any

// ErrorContext accumulates fields and a wrapped error and turns them into
// a single error value when Error is called. The zero value is usable.
type ErrorContext struct {
	fields  F
	wrapped error
}

func Field(key string, value any) ErrorContext {
	return ErrorContext{}.Field(key, value)
}

func Fields(fields F) ErrorContext {
	return ErrorContext{}.Fields(fields)
}

func Wrap(err error) ErrorContext {
	return ErrorContext{}.Wrap(err)
}

func Error(msg string) error {
	return ErrorContext{}.Error(msg)
}

func (e ErrorContext) Field(key string, value any) ErrorContext {
	return e.Fields(F{key: value})
}

func (e ErrorContext) Fields(fields F) ErrorContext {
	merged := F{}
	for key, value := range e.fields {
		merged[key] = value
	}
	for key, value := range fields {
		merged[key] = value
	}

	return ErrorContext{
		fields:  merged,
		wrapped: e.wrapped,
	}
}

func (e ErrorContext) Wrap(err error) ErrorContext {
	return ErrorContext{
		fields:  e.fields,
		wrapped: err,
	}
}

func (e ErrorContext) Error(msg string) error {
	var err error
	if e.wrapped != nil {
		err = errors.Wrap(e.wrapped, msg)
	} else {
		err = errors.New(msg)
	}

	for key, value := range e.fields {
		err = errors.WithDetail(err, fmt.Sprintf("%s: %+v", key, value))
	}

	return err
}

func Log(err error) {
	logger := log.Log
	for _, detail := range errors.GetAllDetails(err) {
		logger = logger.WithField("detail", detail)
	}

	logger.Error(err.Error())
}
