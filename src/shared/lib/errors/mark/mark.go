package mark

import "github.com/cockroachdb/errors"

func Wrap(wrappedErr error, markingErr error, msg string) error {
	newErr := errors.Mark(wrappedErr, markingErr)
	return errors.Wrap(newErr, msg)
}

func Message(markingErr error, msg string) error {
	err := errors.New(msg)
	return errors.Mark(err, markingErr)
}
