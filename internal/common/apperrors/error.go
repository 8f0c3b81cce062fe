package apperrors

// Error is the error type used across the service. Errors form a tree: a
// child created with New, Msg, MsgErr or Err matches its parent with
// errors.Is and inherits the parent's HTTP status code.
type Error interface {
	Error() string
	ErrorAll() string
	New(msg string) Error
	Msg(msg string) Error
	Msgf(format string, args ...any) Error
	MsgErr(msg string, err ...error) Error
	Err(err ...error) Error
	Unwrap() []error
	Is(target error) bool
	SetExpandError(expand bool) Error
	SetStatusCode(code int) Error
	StatusCode() int
}
