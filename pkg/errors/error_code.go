package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidWindow        ErrorCode = 102
	ErrCodeInvalidThreshold     ErrorCode = 103
	ErrCodeInvalidTier          ErrorCode = 104
	ErrCodeInvalidDateRange     ErrorCode = 105

	// Data errors (200-299)
	ErrCodeMissingColumn      ErrorCode = 200
	ErrCodeDataGap            ErrorCode = 201
	ErrCodeQueryFailed        ErrorCode = 202
	ErrCodeDataSourceNotReady ErrorCode = 203
	ErrCodeNoDataFound        ErrorCode = 204
	ErrCodeUnorderedBars      ErrorCode = 205

	// Indicator errors (300-399)
	ErrCodeInsufficientHistory  ErrorCode = 300
	ErrCodeSeriesLengthMismatch ErrorCode = 301

	// Signal errors (400-499)
	ErrCodeSignalEvaluation ErrorCode = 400
	ErrCodeScoringFailed    ErrorCode = 401

	// Backtest errors (500-599)
	ErrCodeBacktestState     ErrorCode = 500
	ErrCodeLedgerWrite       ErrorCode = 501
	ErrCodeCapitalExhausted  ErrorCode = 502
	ErrCodePositionConflict  ErrorCode = 503
	ErrCodeResultWriteFailed ErrorCode = 504
)
