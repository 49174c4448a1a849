package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validConfig = `
chain_id = 40
start_block = 180698860
stop_block = 180698870
block_delta = 36
prev_hash = "757720a8e51c63ef1d4f907d6569dacaa965e91c2661345902de18af11f81063"
http_endpoint = "https://mainnet.telos.net"
ship_endpoint = "ws://127.0.0.1:29999"
data_path = "translator-data"
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, uint64(40), cfg.ChainID)
	assert.Equal(t, uint32(180698860), cfg.StartBlock)
	require.NotNil(t, cfg.StopBlock)
	assert.Equal(t, uint32(180698870), *cfg.StopBlock)
	assert.Equal(t, uint32(36), cfg.BlockDelta)

	assert.Equal(t, DefaultRawMessageChannelSize, cfg.RawMessageChannelSize)
	assert.Equal(t, DefaultBlockProcessChannelSize, cfg.BlockMessageChannelSize)
	assert.Equal(t, DefaultFinalizeChannelSize, cfg.FinalMessageChannelSize)

	assert.Equal(t, uint32(180698870), cfg.StopBlockOrMax())
}

func TestStopBlockDefaultsToMax(t *testing.T) {
	body := `
chain_id = 41
start_block = 1
block_delta = 57
prev_hash = "0x757720a8e51c63ef1d4f907d6569dacaa965e91c2661345902de18af11f81063"
http_endpoint = "https://testnet.telos.net"
ship_endpoint = "ws://127.0.0.1:29999"
data_path = "translator-data"
raw_message_channel_size = 64
`
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)

	assert.Nil(t, cfg.StopBlock)
	assert.Equal(t, ^uint32(0), cfg.StopBlockOrMax())
	assert.Equal(t, 64, cfg.RawMessageChannelSize)
}

func TestLoadRejectsBadPrevHash(t *testing.T) {
	body := `
chain_id = 40
start_block = 1
block_delta = 36
prev_hash = "not-a-hash"
http_endpoint = "https://mainnet.telos.net"
ship_endpoint = "ws://127.0.0.1:29999"
data_path = "translator-data"
`
	_, err := Load(writeConfig(t, body))
	assert.Error(t, err)
}

func TestLoadRejectsMissingEndpoints(t *testing.T) {
	body := `
chain_id = 40
start_block = 1
block_delta = 36
prev_hash = "757720a8e51c63ef1d4f907d6569dacaa965e91c2661345902de18af11f81063"
data_path = "translator-data"
`
	_, err := Load(writeConfig(t, body))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
