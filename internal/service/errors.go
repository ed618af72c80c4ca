package service

import (
	"errors"
	"fmt"
)

// ErrPersistenceUnavailable wraps every failure of the underlying stores.
var ErrPersistenceUnavailable = errors.New("persistence unavailable")

func persistenceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistenceUnavailable, err)
}
