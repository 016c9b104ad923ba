package dev

// error definitions
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrSharedPin   = Error("coarse and fine pins must differ")
	ErrInvalidRate = Error("blink rate must be positive")
)
