package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument     = 1000
	ErrCodeInvalidJSON         = 1001
	ErrCodeRequestTooLarge     = 1002
	ErrCodeInvalidQuery        = 1003
	ErrCodeInvalidBlobID       = 1004
	ErrCodeInvalidQuality      = 1005
	ErrCodeMissingRequired     = 1006
	ErrCodeInvalidTTL          = 1007
	ErrCodeInvalidExportFormat = 1008

	// Domain state (2xxx)
	ErrCodeBlobNotFound      = 2001
	ErrCodeNotAnImage        = 2002
	ErrCodeBlobTooLarge      = 2003
	ErrCodeImageDecodeFailed = 2004

	// Limits (3xxx)
	ErrCodeResourceExhausted = 3001

	// Internal/system (4xxx)
	ErrCodeInternal     = 4001
	ErrCodeStoreFailure = 4002
	ErrCodeExportFailed = 4003
	ErrCodeFetchFailed  = 4004
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 404:
		return ErrCodeBlobNotFound
	case 413:
		return ErrCodeBlobTooLarge
	case 429:
		return ErrCodeResourceExhausted
	case 500:
		return ErrCodeInternal
	case 502:
		return ErrCodeFetchFailed
	default:
		return 0
	}
}
