package geo38

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors below match them via errors.Is.
var (
	ErrInvalidState    = errors.New("geo38: invalid builder state")
	ErrTransport       = errors.New("geo38: transport failure")
	ErrDecode          = errors.New("geo38: unexpected reply shape")
	ErrServer          = errors.New("geo38: server error")
	ErrKeyNotFound     = errors.New("geo38: key not found")
	ErrIDNotFound      = errors.New("geo38: id not found")
	ErrInvalidArgument = errors.New("geo38: invalid argument")
	ErrOutOfRange      = errors.New("geo38: out of range")
)

// ErrorKind classifies a server error reply.
type ErrorKind int

const (
	// KindGeneric is any error text without a more specific rule.
	KindGeneric ErrorKind = iota
	// KindKeyNotFound means the collection key does not exist.
	KindKeyNotFound
	// KindIDNotFound means the object id does not exist in the key.
	KindIDNotFound
	// KindInvalidArgument means the server rejected the command grammar or a value.
	KindInvalidArgument
	// KindOutOfRange means a numeric argument fell outside its domain.
	KindOutOfRange
)

func (k ErrorKind) String() string {
	switch k {
	case KindKeyNotFound:
		return "key_not_found"
	case KindIDNotFound:
		return "id_not_found"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindOutOfRange:
		return "out_of_range"
	default:
		return "generic"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindKeyNotFound:
		return ErrKeyNotFound
	case KindIDNotFound:
		return ErrIDNotFound
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindOutOfRange:
		return ErrOutOfRange
	default:
		return ErrServer
	}
}

// classifyRules is checked in order; the first matching substring wins.
// "out of range" precedes the generic "invalid" rule because range errors
// are often phrased as "invalid ... out of range".
var classifyRules = []struct {
	substr string
	kind   ErrorKind
}{
	{"key not found", KindKeyNotFound},
	{"id not found", KindIDNotFound},
	{"out of range", KindOutOfRange},
	{"invalid argument", KindInvalidArgument},
	{"wrong number of arguments", KindInvalidArgument},
	{"invalid", KindInvalidArgument},
	{"unknown command", KindInvalidArgument},
}

// Classify maps a server error message to an ErrorKind.
// Unrecognised text is KindGeneric.
func Classify(msg string) ErrorKind {
	lower := strings.ToLower(msg)
	for _, r := range classifyRules {
		if strings.Contains(lower, r.substr) {
			return r.kind
		}
	}
	return KindGeneric
}

// ServerError is an `ok:false` reply. Message is the server text verbatim.
type ServerError struct {
	Kind    ErrorKind
	Message string
}

// NewServerError classifies msg and wraps it.
func NewServerError(msg string) *ServerError {
	return &ServerError{Kind: Classify(msg), Message: msg}
}

func (e *ServerError) Error() string { return "geo38: server: " + e.Message }

// Is reports whether target is the sentinel for e.Kind or ErrServer.
func (e *ServerError) Is(target error) bool {
	return target == ErrServer || target == e.Kind.sentinel()
}

// TransportError wraps a failure of the underlying connection.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return "geo38: " + e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// Is matches ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// DecodeError reports a well-formed reply that does not have the expected shape.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return "geo38: decode: " + e.Err.Error()
	}
	return "geo38: decode " + e.Field + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func decodeErr(field string, err error) error {
	return &DecodeError{Field: field, Err: err}
}

func stateErr(what string) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, what)
}
