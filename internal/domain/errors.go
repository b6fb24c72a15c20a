package domain

import "errors"

// Domain errors
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidAmount          = errors.New("amount must be a non-negative number")
	ErrInvalidDate            = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidMonthKey        = errors.New("month must be in YYYY-MM format")
	ErrInvalidTransactionType = errors.New("type must be one of expense, income, saving")
	ErrMissingCategory        = errors.New("category is required")
	ErrCacheMiss              = errors.New("cache miss")
	ErrExportDisabled         = errors.New("report export is not configured")
)

// Validation constants
const (
	MaxRawTransactions = 5000
)
