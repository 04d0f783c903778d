package services

import "errors"

// Shared sentinel errors, mapped to HTTP statuses in handlers.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed           = errors.New("validation failed")
	ErrPasswordTooShort           = errors.New("password is too short")
	ErrTournamentNameRequired     = errors.New("tournament name is required")
	ErrTournamentInvalidDateRange = errors.New("tournament end date must be after start date")
	ErrTournamentInvalidCapacity  = errors.New("tournament max users must be positive")
	ErrTournamentInvalidEntryFee  = errors.New("tournament entry fee must not be negative")
	ErrTournamentInvalidStatus    = errors.New("invalid tournament status transition")
	ErrTournamentNotActive        = errors.New("tournament is not active")
	ErrTournamentFinished         = errors.New("tournament is already finished")
	ErrNoScores                   = errors.New("no scores submitted for this tournament")
	ErrPrizesAlreadyDistributed   = errors.New("prizes have already been distributed for this tournament")
	ErrPaymentAlreadyProcessed    = errors.New("payment has already been verified or rejected")
	ErrInvalidVerifyDecision      = errors.New("decision must be approve or reject")
	ErrScoreInvalid               = errors.New("score must be positive")
	ErrTxHashRequired             = errors.New("transaction hash is required")
	ErrWalletRequired             = errors.New("wallet address is required")
	ErrCorrectionZeroDelta        = errors.New("pool correction delta must not be zero")

	// Conflicts
	ErrUsernameConflict       = errors.New("username is already in use")
	ErrEmailConflict          = errors.New("email is already in use")
	ErrTournamentNameConflict = errors.New("tournament name already exists")

	// Infrastructure
	ErrStorageNotConfigured = errors.New("object storage is not configured")

	// Authentication and authorization
	ErrAuthInvalidCredentials = errors.New("invalid username or password")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrAdminRequired          = errors.New("admin access required")

	// Entity-specific not-found
	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrPaymentNotFound    = errors.New("payment not found")
)
