package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/rs/zerolog"
)

// ErrHTTPStatus is the root cause of every HTTPResponseError.
var ErrHTTPStatus = errors.New("HTTP status")

// HandleRequest executes req through issuer and classifies the outcome:
//
//  1. the issuer failed                   -> *TCPError
//  2. the status code is >= 400           -> *HTTPResponseError
//  3. the body is not an RPCResponse[T]   -> *JSONParseError
//  4. the response carries an error       -> *MessageError
//     it carries neither result nor error -> *UnexpectedError
//
// Otherwise the result is returned. Stages run in that order and the first
// failure ends the call.
func HandleRequest[T any](ctx context.Context, issuer RequestIssuer, req Request) (T, AppError) {
	var zero T
	log := zerolog.Ctx(ctx).With().Str("method", req.Method).Str("url", req.URL).Logger()

	raw, aerr := execute(ctx, &log, issuer, req)
	if aerr != nil {
		return zero, aerr
	}

	var resp RPCResponse[T]
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return zero, logged(&log, &JSONParseError{Err: err})
	}

	switch {
	case resp.Error != nil:
		return zero, logged(&log, &MessageError{Message: resp.Error.Message})
	case resp.Result != nil:
		log.Debug().Int("status", raw.StatusCode).Msg("rpc call succeeded")
		return *resp.Result, nil
	default:
		return zero, logged(&log, &UnexpectedError{Message: UnexpectedResponseMessage})
	}
}

// Call POSTs {method, params} to endpoint and decodes the result as T.
func Call[T any](ctx context.Context, issuer RequestIssuer, endpoint, method string, params [2]string) (T, AppError) {
	return HandleRequest[T](ctx, issuer, Request{
		Method: http.MethodPost,
		URL:    endpoint,
		Body:   RPCRequest{Method: method, Params: params},
	})
}

// Fetch GETs url and returns the raw body. Only the transport and status
// stages apply, so the error is always a *TCPError or *HTTPResponseError.
func Fetch(ctx context.Context, issuer RequestIssuer, url string) ([]byte, AppError) {
	log := zerolog.Ctx(ctx).With().Str("method", http.MethodGet).Str("url", url).Logger()

	raw, aerr := execute(ctx, &log, issuer, Request{Method: http.MethodGet, URL: url})
	if aerr != nil {
		return nil, aerr
	}

	log.Debug().Int("status", raw.StatusCode).Int("bytes", len(raw.Body)).Msg("fetch succeeded")
	return raw.Body, nil
}

// execute runs the transport and status stages shared by HandleRequest and Fetch.
func execute(ctx context.Context, log *zerolog.Logger, issuer RequestIssuer, req Request) (*RawResponse, AppError) {
	raw, err := issuer.Execute(ctx, req)
	if err != nil {
		return nil, logged(log, &TCPError{Err: err})
	}
	if raw == nil {
		return nil, logged(log, &TCPError{Err: fmt.Errorf("%w: issuer returned no response", ErrConnect)})
	}
	if aerr := checkStatus(raw); aerr != nil {
		return nil, logged(log, aerr)
	}
	return raw, nil
}

func checkStatus(raw *RawResponse) AppError {
	if raw.StatusCode < 400 {
		return nil
	}

	status := raw.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", raw.StatusCode, http.StatusText(raw.StatusCode))
	}
	return &HTTPResponseError{
		StatusCode: raw.StatusCode,
		Status:     status,
		URL:        raw.URL,
		Err:        fmt.Errorf("%w %s for url (%s)", ErrHTTPStatus, status, raw.URL),
	}
}

func logged(log *zerolog.Logger, err AppError) AppError {
	log.Debug().Err(err).Stringer("kind", err.Kind()).Msg("rpc call failed")
	return err
}
