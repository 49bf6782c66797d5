package store

import "errors"

func errorsIsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}
