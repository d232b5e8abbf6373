package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidIntent        ErrorCode = 103
	ErrCodeInvalidSnapshot      ErrorCode = 104

	// Data errors (200-299)
	ErrCodeDataGap       ErrorCode = 200
	ErrCodeDataNotFound  ErrorCode = 201
	ErrCodeQueryFailed   ErrorCode = 202
	ErrCodeStoreFailed   ErrorCode = 203
	ErrCodeFeedClosed    ErrorCode = 204
	ErrCodeFeedCorrupted ErrorCode = 205

	// Indicator errors (300-399)
	ErrCodeInsufficientHistory ErrorCode = 300
	ErrCodeIndicatorFailed     ErrorCode = 301

	// Signal errors (400-499)
	ErrCodeSignalFailed ErrorCode = 400

	// Broker/trading errors (500-599)
	ErrCodeBrokerTransient    ErrorCode = 500
	ErrCodeBrokerRejected     ErrorCode = 501
	ErrCodeBrokerAuthFailed   ErrorCode = 502
	ErrCodeOrderNotFound      ErrorCode = 503
	ErrCodeInvalidTransition  ErrorCode = 504
	ErrCodeSubmissionFailure  ErrorCode = 505
	ErrCodeInsufficientFunds  ErrorCode = 506
	ErrCodeInsufficientShares ErrorCode = 507

	// Risk errors (600-699)
	ErrCodeRiskRejected  ErrorCode = 600
	ErrCodeRiskBreach    ErrorCode = 601
	ErrCodeTradingHalted ErrorCode = 602

	// Ledger errors (700-799)
	ErrCodeLedgerInvariant ErrorCode = 700
	ErrCodeUnknownPosition ErrorCode = 701

	// Engine errors (800-899)
	ErrCodeEngineInitFailed ErrorCode = 800
	ErrCodeCallbackFailed   ErrorCode = 801
)
