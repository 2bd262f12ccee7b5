package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation diagnostics (100-199)
	ErrCodeUnknownIndicator        ErrorCode = 100
	ErrCodeMissingParameter        ErrorCode = 101
	ErrCodeParameterTypeMismatch   ErrorCode = 102
	ErrCodeUnknownOutputLine       ErrorCode = 103
	ErrCodeCircularReference       ErrorCode = 104
	ErrCodeUnknownVariable         ErrorCode = 105
	ErrCodeUnknownParameter        ErrorCode = 106
	ErrCodeNonConstantParameter    ErrorCode = 107
	ErrCodeNestedIndicator         ErrorCode = 108
	ErrCodeInvalidExport           ErrorCode = 109
	ErrCodeMissingExport           ErrorCode = 110
	ErrCodeDuplicateVariable       ErrorCode = 111
	ErrCodeInvalidTemplate         ErrorCode = 112
	ErrCodeValidationFailed        ErrorCode = 113
	ErrCodeIncompatibleVersion     ErrorCode = 114
	ErrCodeInvalidSignal           ErrorCode = 115
	ErrCodeInvalidParameterDefault ErrorCode = 116

	// Catalog errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeCatalogLoadFailed      ErrorCode = 302

	// Lowering errors (400-499)
	ErrCodeUnresolvedInstance    ErrorCode = 400
	ErrCodeUnsupportedExpression ErrorCode = 401
	ErrCodeUnsupportedCondition  ErrorCode = 402
	ErrCodeUnsupportedSource     ErrorCode = 403
	ErrCodeInvalidTimeframe      ErrorCode = 404
	ErrCodeMalformedDispatch     ErrorCode = 405
	ErrCodeUnresolvedReference   ErrorCode = 406

	// Emission errors (500-599)
	ErrCodeUnsupportedTarget   ErrorCode = 500
	ErrCodeEmissionFailed      ErrorCode = 501
	ErrCodeUnsupportedPeriod   ErrorCode = 502
	ErrCodeUnsupportedArgument ErrorCode = 503

	// Storage errors (600-699)
	ErrCodeStoreUnavailable ErrorCode = 600
	ErrCodeStoreWriteFailed ErrorCode = 601
	ErrCodeStoreQueryFailed ErrorCode = 602

	// Configuration and document errors (700-799)
	ErrCodeInvalidConfiguration ErrorCode = 700
	ErrCodeDocumentParseFailed  ErrorCode = 701
)
