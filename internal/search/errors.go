package search

type ErrorCode string

const (
	ErrorCodeValidation          ErrorCode = "VALIDATION"
	ErrorCodeUnsupportedSupplier ErrorCode = "UNSUPPORTED_SUPPLIER"
	ErrorCodeOfferNotFound       ErrorCode = "OFFER_NOT_FOUND"
	ErrorCodeSupplierFailure     ErrorCode = "SUPPLIER_FAILURE"
	ErrorCodeInternalFailure     ErrorCode = "INTERNAL_FAILURE"
)

// AppError carries an HTTP status and a stable code for the response body.
type AppError struct {
	Status  int
	Code    ErrorCode
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(status int, code ErrorCode, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}
