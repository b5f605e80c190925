package service

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserInactive        = errors.New("user account is inactive")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrRefreshTokenRevoked = errors.New("refresh token has been revoked")
	ErrUserExists          = errors.New("user with this email already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrRoleNotFound        = errors.New("role not found")
	ErrRoleExists          = errors.New("role with this name already exists")
	ErrPermissionNotFound  = errors.New("permission not found")
	ErrPermissionExists    = errors.New("permission with this name already exists")
	ErrSystemRole          = errors.New("system role cannot be modified")
	ErrValidation          = errors.New("validation failed")
	ErrTokenDenylisted     = errors.New("token has been revoked")
)
