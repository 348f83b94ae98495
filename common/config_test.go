package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig_CreatesMissingFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "datadir")
	config := Config{DataDir: dir}

	require.NoError(t, config.ReadConfig())
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))

	assert.Equal(t, DefaultRPCAddr, config.RPCAddr)
	assert.Equal(t, "http://localhost:24335/rpc", config.Endpoint)
	assert.Equal(t, 10*time.Second, config.ConnectTimeout)
	assert.Equal(t, 30*time.Second, config.Timeout)
	assert.Equal(t, "bolt", config.Store)
}

func TestReadConfig_File(t *testing.T) {
	dir := t.TempDir()
	yaml := `
endpoint: http://rpc.example.com/rpc
connect-timeout: 3s
timeout: 1m
rpc-addr: 0.0.0.0:9000
store: badger
rate-limit: 2.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	config := Config{DataDir: dir}
	require.NoError(t, config.ReadConfig())

	assert.Equal(t, "http://rpc.example.com/rpc", config.Endpoint)
	assert.Equal(t, 3*time.Second, config.ConnectTimeout)
	assert.Equal(t, time.Minute, config.Timeout)
	assert.Equal(t, "0.0.0.0:9000", config.RPCAddr)
	assert.Equal(t, "badger", config.Store)
	assert.Equal(t, 2.5, config.RateLimit)
	assert.Equal(t, 1, config.RateBurst)
	assert.NoError(t, config.Validate())

	assert.Equal(t, IssuerConfig{ConnectTimeout: 3 * time.Second, Timeout: time.Minute}, config.IssuerConfig())
}

func TestReadConfig_EndpointFollowsRPCAddr(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("rpc-addr: 127.0.0.1:7000\n"), 0644))

	config := Config{DataDir: dir}
	require.NoError(t, config.ReadConfig())
	assert.Equal(t, "http://127.0.0.1:7000/rpc", config.Endpoint)
}

func TestReadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("timeout: [1, 2\n"), 0644))

	config := Config{DataDir: dir}
	assert.Error(t, config.ReadConfig())
}

func TestValidate(t *testing.T) {
	config := Config{Store: "sqlite"}
	assert.Error(t, config.Validate())

	config = Config{Store: "bolt", RateLimit: -1}
	assert.Error(t, config.Validate())

	config = Config{Store: "bolt"}
	assert.NoError(t, config.Validate())
}
