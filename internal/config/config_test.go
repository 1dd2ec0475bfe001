package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://rpc.testnet.near.org", cfg.RPCURL)
	assert.Equal(t, 2*time.Second, cfg.SettleDelay)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, BackoffFixed, cfg.Backoff)
	assert.Equal(t, 5*time.Second, cfg.BackoffBase)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, "./data/events.jsonl", cfg.Out)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.AccountID)
	assert.Nil(t, cfg.KafkaBrokers)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listener.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
account-id: file.testnet
method-name: nft_mint
start-height: 1000
poll-interval: 500ms
kafka-brokers:
  - k1:9092
  - k2:9092
`), 0o644))

	t.Setenv("LISTENER_METHOD_NAME", "from_env")
	t.Setenv("LISTENER_BACKOFF", "Exponential")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("account-id", "", "")
	flags.Uint64("start-height", 0, "")
	require.NoError(t, flags.Parse([]string{"--start-height=2000"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "file.testnet", cfg.AccountID)
	assert.Equal(t, "from_env", cfg.MethodName)
	assert.Equal(t, uint64(2000), cfg.StartHeight)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, BackoffExponential, cfg.Backoff)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoadSplitsBrokerList(t *testing.T) {
	t.Setenv("LISTENER_KAFKA_BROKERS", " k1:9092, ,k2:9092 ")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("LISTENER_BACKOFF", "linear")
	_, err := Load("", nil)
	assert.Error(t, err)

	t.Setenv("LISTENER_BACKOFF", "fixed")
	t.Setenv("LISTENER_MAX_RETRIES", "-1")
	_, err = Load("", nil)
	assert.Error(t, err)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadDecode(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("in", "", "")
	require.NoError(t, flags.Parse([]string{"--in=logs.txt"}))

	cfg, err := LoadDecode("", flags)
	require.NoError(t, err)
	assert.Equal(t, "logs.txt", cfg.In)
	assert.Equal(t, "./data/decoded_events.jsonl", cfg.Out)
	assert.Equal(t, "./data/decode_errors.jsonl", cfg.Errors)
}
