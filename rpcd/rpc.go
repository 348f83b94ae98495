package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fiatjaf/rpcpipe/common"
	"github.com/go-json-experiment/json"
	"go.uber.org/zap/buffer"
	"golang.org/x/time/rate"
)

const VERSION = "0.1.0"

var bufferPool = buffer.NewPool()

type server struct {
	config *common.Config
	store  Store
}

type info struct {
	Version string `json:"version"`
	Store   string `json:"store"`
}

func newHandler(config *common.Config, store Store) http.Handler {
	s := &server{config: config, store: store}

	var handler http.Handler = http.HandlerFunc(s.handleRPC)
	if config.RateLimit > 0 {
		handler = rateLimit(config.RateLimit, config.RateBurst)(handler)
	}

	mux := http.NewServeMux()
	mux.Handle("/rpc", logRequests(handler))
	return mux
}

func (s *server) handleRPC(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if r.Method != http.MethodPost {
		writeResponse(w, http.StatusMethodNotAllowed, errorResponse("method not allowed: use POST"))
		return
	}

	var req common.RPCRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		log.Debug().Err(err).Msg("bad request body")
		writeResponse(w, http.StatusBadRequest, errorResponse("error decoding request JSON"))
		return
	}

	var resp common.RPCResponse[any]
	result, err := s.dispatch(req)
	if err != nil {
		resp.Error = &common.RPCResponseError{Message: err.Error()}
	} else if result != nil {
		resp.Result = &result
	}

	writeResponse(w, http.StatusOK, resp)
}

// dispatch runs one method. A nil result with a nil error is deliberate and
// produces a response carrying neither field.
func (s *server) dispatch(req common.RPCRequest) (result any, err error) {
	switch req.Method {
	case "getinfo":
		return info{Version: VERSION, Store: s.config.Store}, nil
	case "echo":
		return req.Params[0] + " " + req.Params[1], nil
	case "set":
		key, value := req.Params[0], req.Params[1]
		if key == "" {
			return nil, errors.New("missing key")
		}
		if err := s.store.Put(key, value); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to store value")
			return nil, fmt.Errorf("failed to store %s", key)
		}
		return value, nil
	case "get":
		key, fallback := req.Params[0], req.Params[1]
		value, err := s.store.Get(key)
		if errors.Is(err, ErrNotFound) {
			if fallback != "" {
				return fallback, nil
			}
			return nil, fmt.Errorf("key not found: %s", key)
		} else if err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to read value")
			return nil, fmt.Errorf("failed to read %s", key)
		}
		return value, nil
	case "blank":
		return nil, nil
	default:
		return nil, fmt.Errorf("method not found: '%s'", req.Method)
	}
}

func errorResponse(message string) common.RPCResponse[any] {
	return common.RPCResponse[any]{Error: &common.RPCResponseError{Message: message}}
}

func writeResponse(w http.ResponseWriter, status int, resp common.RPCResponse[any]) {
	buf := bufferPool.Get()
	defer buf.Free()

	if err := json.MarshalWrite(buf, resp); err != nil {
		log.Error().Err(err).Msg("error encoding response")
		status = http.StatusInternalServerError
		buf.Reset()
		buf.AppendString(`{"result":null,"error":{"message":"error encoding response"}}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func rateLimit(r float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				writeResponse(w, http.StatusTooManyRequests, errorResponse("rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug().Str("remote", r.RemoteAddr).Int("status", rec.status).
			Dur("took", time.Since(start)).Msg("rpc request")
	})
}
