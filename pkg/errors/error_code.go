package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown  ErrorCode = 1
	ErrCodeInternal ErrorCode = 2

	// Validation errors (100-199)
	ErrCodeInvalidInput         ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrderIntent   ErrorCode = 102
	ErrCodeInsufficientData     ErrorCode = 103
	ErrCodeInvalidCandle        ErrorCode = 104
	ErrCodeInvalidVersion       ErrorCode = 105
	ErrCodeVersionMismatch      ErrorCode = 106

	// Order lifecycle errors (200-299)
	ErrCodeDuplicateSubmission ErrorCode = 200
	ErrCodeUnknownOrder        ErrorCode = 201
	ErrCodeInvalidState        ErrorCode = 202
	ErrCodeOrderAlreadyFilled  ErrorCode = 203

	// Exchange errors (300-399)
	ErrCodeExchangeNetwork     ErrorCode = 300
	ErrCodeExchangeRateLimited ErrorCode = 301
	ErrCodeExchangeUnavailable ErrorCode = 302
	ErrCodeExchangeRejected    ErrorCode = 303
	ErrCodeExchangeAuth        ErrorCode = 304

	// Strategy errors (400-499)
	ErrCodeStrategyRuntimeError ErrorCode = 400

	// Engine errors (500-599)
	ErrCodeEngineAlreadyRunning ErrorCode = 500
	ErrCodeEngineNotRunning     ErrorCode = 501
	ErrCodeInvalidMode          ErrorCode = 502

	// Market data errors (600-699)
	ErrCodeMarketDataFetchFailed ErrorCode = 600
	ErrCodeInvalidTimeframe      ErrorCode = 601
)
