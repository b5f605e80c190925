package service

import "errors"

var (
	ErrClassificationNotFound = errors.New("classification not found")
	ErrNotDeleted             = errors.New("classification is not deleted")
	ErrUserNotFound           = errors.New("user not found")
	ErrUserInactive           = errors.New("user account is inactive")
	ErrTokenDenylisted        = errors.New("token has been revoked")
	ErrValidation             = errors.New("validation failed")
)
