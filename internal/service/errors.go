package service

import "errors"

var (
	ErrRateLimited   = errors.New("too many booking attempts, please try again later")
	ErrItemNotFound  = errors.New("item not found")
	ErrInvalidStatus = errors.New("invalid booking status")
)
