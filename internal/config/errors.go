package config

import "errors"

var (
	ErrSourceRequired  = errors.New("API description source is required")
	ErrMethodsRequired = errors.New("methods file is required (--methods)")
	ErrUnknownFormat   = errors.New("unknown output format (expected text, json, yaml or llms)")
	ErrNegativeLimit   = errors.New("maxDepth and workers must not be negative")
)
