package domain

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrFetch           = errors.New("mailbox fetch failed")
	ErrSyncWrite       = errors.New("tabular write failed")
	ErrStoreNotFound   = errors.New("tabular store not found")
)
