package common

import "fmt"

// ErrorKind names the pipeline stage an AppError came out of.
type ErrorKind int

const (
	KindTCP ErrorKind = iota + 1
	KindHTTPResponse
	KindJSONParse
	KindMessage
	KindUnexpected
)

func (k ErrorKind) String() string {
	switch k {
	case KindTCP:
		return "tcp"
	case KindHTTPResponse:
		return "http-response"
	case KindJSONParse:
		return "json-parse"
	case KindMessage:
		return "message"
	case KindUnexpected:
		return "unexpected"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Message prefixes. Each one is distinct so a failure can be classified from
// its rendered text alone.
const (
	TCPErrorPrefix          = "Unexpected TCP error"
	HTTPResponseErrorPrefix = "Request came back with HTTP error response code."
	JSONParseErrorPrefix    = "Could not parse JSON response."
	MessageErrorPrefix      = "Server reported an error"
	UnexpectedErrorPrefix   = "Unexpected response shape"
)

// UnexpectedResponseMessage is the diagnostic carried by every UnexpectedError.
const UnexpectedResponseMessage = "response contained neither a result nor an error"

// AppError is every way HandleRequest can fail. The set is closed: the only
// implementations are the five pointer types below, so a type switch over
// them covers every case.
type AppError interface {
	error
	Kind() ErrorKind
	appError()
}

// TCPError means no HTTP response was obtained at all: DNS, connect, TLS,
// timeout, cancellation or a broken body read.
type TCPError struct {
	Err error
}

func (e *TCPError) Error() string   { return TCPErrorPrefix + ": " + e.Err.Error() }
func (e *TCPError) Unwrap() error   { return e.Err }
func (e *TCPError) Kind() ErrorKind { return KindTCP }
func (*TCPError) appError()         {}

// HTTPResponseError means the server answered with a status >= 400.
type HTTPResponseError struct {
	StatusCode int
	Status     string
	URL        string
	Err        error
}

func (e *HTTPResponseError) Error() string   { return HTTPResponseErrorPrefix + " " + e.Err.Error() }
func (e *HTTPResponseError) Unwrap() error   { return e.Err }
func (e *HTTPResponseError) Kind() ErrorKind { return KindHTTPResponse }
func (*HTTPResponseError) appError()         {}

// JSONParseError means the body was not a valid RPCResponse for the expected
// result type.
type JSONParseError struct {
	Err error
}

func (e *JSONParseError) Error() string   { return JSONParseErrorPrefix + " " + e.Err.Error() }
func (e *JSONParseError) Unwrap() error   { return e.Err }
func (e *JSONParseError) Kind() ErrorKind { return KindJSONParse }
func (*JSONParseError) appError()         {}

// MessageError carries the message of an error object sent by the server.
type MessageError struct {
	Message string
}

func (e *MessageError) Error() string   { return MessageErrorPrefix + ": " + e.Message }
func (e *MessageError) Kind() ErrorKind { return KindMessage }
func (*MessageError) appError()         {}

// UnexpectedError means the response parsed but had neither result nor error.
type UnexpectedError struct {
	Message string
}

func (e *UnexpectedError) Error() string   { return UnexpectedErrorPrefix + ": " + e.Message }
func (e *UnexpectedError) Kind() ErrorKind { return KindUnexpected }
func (*UnexpectedError) appError()         {}
