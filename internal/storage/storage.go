package storage

import "errors"

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrTokenNotFound      = errors.New("verification token not found")
	ErrScopeNotFound      = errors.New("scope not found")
	ErrTopicNotFound      = errors.New("topic not found")
	ErrRepetitionNotFound = errors.New("repetition not found")
)
