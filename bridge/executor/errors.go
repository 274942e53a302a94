package executor

// DetailError is a handler error that carries structured detail for the
// response's error object.
type DetailError struct {
	Err    error
	Detail map[string]any
}

func (e *DetailError) Error() string {
	return e.Err.Error()
}

func (e *DetailError) Unwrap() error {
	return e.Err
}

// WithDetail attaches detail to err.
func WithDetail(err error, detail map[string]any) error {
	if err == nil {
		return nil
	}
	return &DetailError{Err: err, Detail: detail}
}
