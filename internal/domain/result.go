package domain

// Result is the {success, data, error} envelope handed to API consumers. Data
// is always present on success, so an empty read encodes as an empty list.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// Failure is the envelope of a request that produced nothing.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
}

func NewResult[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail builds the failure envelope for err with the given public message.
func Fail(msg string, err error) Failure {
	return Failure{Error: msg, Kind: KindOf(err)}
}

// Partial reports a result that carries data and a non-fatal error kind.
func Partial[T any](data T, err error) Result[T] {
	return Result[T]{Success: true, Data: data, Error: err.Error(), Kind: KindOf(err)}
}
