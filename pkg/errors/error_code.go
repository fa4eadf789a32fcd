package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown  ErrorCode = 1
	ErrCodeInternal ErrorCode = 2

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidIndicatorName ErrorCode = 102
	ErrCodeInvalidVersion       ErrorCode = 103
	ErrCodeInvalidPeriod        ErrorCode = 104
	ErrCodeInvalidMetric        ErrorCode = 105
	ErrCodeInvalidTimeRange     ErrorCode = 106

	// Dataset errors (200-299)
	ErrCodeInvalidCoreDataset    ErrorCode = 200
	ErrCodeColumnNotFound        ErrorCode = 201
	ErrCodeTimestampOrder        ErrorCode = 202
	ErrCodeCoreColumnsMutated    ErrorCode = 203
	ErrCodeColumnLengthMismatch  ErrorCode = 204
	ErrCodeEmptyDataset          ErrorCode = 205
	ErrCodeInvalidSignalSequence ErrorCode = 206

	// Indicator errors (300-399)
	ErrCodeDuplicateIndicator ErrorCode = 300
	ErrCodeUnknownIndicator   ErrorCode = 301
	ErrCodeDependencyCycle    ErrorCode = 302
	ErrCodeIndicatorCompute   ErrorCode = 303

	// Strategy errors (400-499)
	ErrCodeStrategyScan   ErrorCode = 400
	ErrCodeStrategyConfig ErrorCode = 401

	// Simulation errors (500-599)
	ErrCodeSimulationTask      ErrorCode = 500
	ErrCodeSimulationCancelled ErrorCode = 501

	// Orchestrator errors (600-699)
	ErrCodeEmptySweep          ErrorCode = 600
	ErrCodeNoStrategy          ErrorCode = 601
	ErrCodeNoDataset           ErrorCode = 602
	ErrCodeExperimentCancelled ErrorCode = 603

	// Store errors (700-799)
	ErrCodeStoreInitFailed  ErrorCode = 700
	ErrCodeStoreQueryFailed ErrorCode = 701
	ErrCodeStoreWriteFailed ErrorCode = 702
)
