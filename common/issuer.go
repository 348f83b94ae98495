package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"
)

// Sentinels attached to transport failures. HandleRequest does not look at
// them, it reports every one as a TCPError, but they stay in the chain for
// errors.Is.
var (
	ErrDNS            = errors.New("DNS resolution failed")
	ErrTimeout        = errors.New("request timed out")
	ErrCanceled       = errors.New("request canceled")
	ErrConnect        = errors.New("connection failed")
	ErrInvalidRequest = errors.New("invalid request")
)

// Request describes one outgoing HTTP call. Body, when non-nil, is sent as JSON.
type Request struct {
	Method string
	URL    string
	Body   any
}

// RawResponse is a response whose body has been read in full.
type RawResponse struct {
	StatusCode int
	Status     string // "404 Not Found"
	URL        string
	Body       []byte
}

// RequestIssuer performs exactly one network round trip per Execute. Any
// failure before a complete response is in hand is returned as an error.
type RequestIssuer interface {
	Execute(ctx context.Context, req Request) (*RawResponse, error)
}

type IssuerConfig struct {
	// ConnectTimeout bounds dialing the remote host (default: 10s)
	ConnectTimeout time.Duration

	// Timeout bounds the whole exchange including reading the body (default: 30s)
	Timeout time.Duration
}

func DefaultIssuerConfig() IssuerConfig {
	return IssuerConfig{
		ConnectTimeout: DefaultConnectTimeout,
		Timeout:        DefaultTimeout,
	}
}

// HTTPIssuer is the net/http RequestIssuer. It is safe for concurrent use.
type HTTPIssuer struct {
	client *http.Client
}

func NewHTTPIssuer(cfg IssuerConfig) *HTTPIssuer {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &HTTPIssuer{
		client: &http.Client{Transport: transport, Timeout: cfg.Timeout},
	}
}

// Timeout returns the overall timeout applied to each request.
func (h *HTTPIssuer) Timeout() time.Duration { return h.client.Timeout }

func (h *HTTPIssuer) Execute(ctx context.Context, req Request) (*RawResponse, error) {
	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding body: %w", ErrInvalidRequest, err)
		}
		body = bytes.NewReader(payload)
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	hreq.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(hreq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(fmt.Errorf("reading response body: %w", err))
	}

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		URL:        resp.Request.URL.String(),
		Body:       data,
	}, nil
}

func classifyTransportError(err error) error {
	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.As(err, &dnsErr):
		return fmt.Errorf("%w: %w", ErrDNS, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}
}
