package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fiatjaf/rpcpipe/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, config *common.Config) *httptest.Server {
	t.Helper()
	if config.DataDir == "" {
		config.DataDir = t.TempDir()
	}
	config.SetDefaults()

	store, err := openStore(config)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(newHandler(config, store))
	t.Cleanup(srv.Close)
	return srv
}

func call[T any](t *testing.T, srv *httptest.Server, method string, params ...string) (T, common.AppError) {
	t.Helper()
	var pair [2]string
	copy(pair[:], params)
	return common.Call[T](context.Background(), common.NewHTTPIssuer(common.DefaultIssuerConfig()), srv.URL+"/rpc", method, pair)
}

func TestRPC_Methods(t *testing.T) {
	for _, backend := range []string{"bolt", "badger"} {
		t.Run(backend, func(t *testing.T) {
			srv := newTestServer(t, &common.Config{Store: backend})

			got, err := call[info](t, srv, "getinfo")
			require.Nil(t, err)
			assert.Equal(t, info{Version: VERSION, Store: backend}, got)

			echoed, err := call[string](t, srv, "echo", "hello", "world")
			require.Nil(t, err)
			assert.Equal(t, "hello world", echoed)

			stored, err := call[string](t, srv, "set", "name", "fiatjaf")
			require.Nil(t, err)
			assert.Equal(t, "fiatjaf", stored)

			value, err := call[string](t, srv, "get", "name")
			require.Nil(t, err)
			assert.Equal(t, "fiatjaf", value)

			value, err = call[string](t, srv, "get", "other", "default")
			require.Nil(t, err)
			assert.Equal(t, "default", value)

			_, err = call[string](t, srv, "get", "other")
			require.IsType(t, &common.MessageError{}, err)
			assert.Equal(t, "key not found: other", err.(*common.MessageError).Message)
		})
	}
}

func TestRPC_ErrorShapes(t *testing.T) {
	srv := newTestServer(t, &common.Config{})

	_, err := call[string](t, srv, "nope")
	require.IsType(t, &common.MessageError{}, err)
	assert.Equal(t, "method not found: 'nope'", err.(*common.MessageError).Message)

	_, err = call[string](t, srv, "set", "", "value")
	require.IsType(t, &common.MessageError{}, err)

	_, err = call[string](t, srv, "blank")
	require.IsType(t, &common.UnexpectedError{}, err)

	// getinfo returns an object, asking for a string must fail at parse time
	_, err = call[string](t, srv, "getinfo")
	require.IsType(t, &common.JSONParseError{}, err)
}

func TestRPC_BlankEmitsBothNulls(t *testing.T) {
	srv := newTestServer(t, &common.Config{})

	resp, err := http.Post(srv.URL+"/rpc", "application/json", strings.NewReader(`{"method":"blank","params":["",""]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"result":null,"error":null}`, string(body))
}

func TestRPC_BadRequests(t *testing.T) {
	srv := newTestServer(t, &common.Config{})

	resp, err := http.Post(srv.URL+"/rpc", "application/json", strings.NewReader(`not json`))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"result":null,"error":{"message":"error decoding request JSON"}}`, string(body))

	resp, err = http.Get(srv.URL + "/rpc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/elsewhere")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRPC_HTTPErrorWinsOverBody(t *testing.T) {
	srv := newTestServer(t, &common.Config{})

	// the 400 carries a well formed error body, it must still be an HTTP failure
	issuer := common.NewHTTPIssuer(common.DefaultIssuerConfig())
	_, err := common.HandleRequest[string](context.Background(), issuer, common.Request{
		Method: http.MethodPost,
		URL:    srv.URL + "/rpc",
		Body:   "not an rpc request",
	})
	require.IsType(t, &common.HTTPResponseError{}, err)
	assert.Equal(t, http.StatusBadRequest, err.(*common.HTTPResponseError).StatusCode)
}

func TestRPC_RateLimit(t *testing.T) {
	srv := newTestServer(t, &common.Config{RateLimit: 0.001, RateBurst: 2})

	for i := 0; i < 2; i++ {
		_, err := call[string](t, srv, "echo", "a", "b")
		require.Nil(t, err, "request %d should pass", i)
	}

	_, err := call[string](t, srv, "echo", "a", "b")
	require.IsType(t, &common.HTTPResponseError{}, err)
	assert.Equal(t, http.StatusTooManyRequests, err.(*common.HTTPResponseError).StatusCode)
}

func TestOpenStore_Unknown(t *testing.T) {
	_, err := openStore(&common.Config{DataDir: t.TempDir(), Store: "sqlite"})
	assert.Error(t, err)
}
