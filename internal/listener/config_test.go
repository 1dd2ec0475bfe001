package listener

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearListener/internal/chain"
	"nearListener/internal/model"
)

func TestNewRejectsEmptyAccountID(t *testing.T) {
	cfg := Config{
		RPCEndpoint: "https://rpc.testnet.near.org",
		MethodName:  "nft_mint",
	}

	_, err := New(cfg, &fakeClient{}, func(context.Context, model.Delivery) error { return nil })
	require.ErrorIs(t, err, ErrMissingField)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "account_id", cfgErr.Field)
}

func TestValidateChecksFieldsInOrder(t *testing.T) {
	err := Config{}.Validate()
	require.ErrorIs(t, err, ErrMissingField)
	assert.EqualError(t, err, "missing field: account_id")

	err = Config{AccountID: "nft.testnet"}.Validate()
	require.ErrorIs(t, err, ErrMissingField)
	assert.EqualError(t, err, "missing field: method_name")

	assert.NoError(t, Config{AccountID: "nft.testnet", MethodName: "nft_mint"}.Validate())
}

func TestNewStartsCursorAtStartHeight(t *testing.T) {
	cfg := Config{AccountID: "nft.testnet", MethodName: "nft_mint", StartHeight: 120}

	l, err := New(cfg, &fakeClient{}, func(context.Context, model.Delivery) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, uint64(120), l.Cursor())
	assert.Equal(t, cfg, l.Config())
	assert.Equal(t, chain.WaitFinal, l.waitUntil)
	assert.Equal(t, DefaultSettleDelay, l.settleDelay)
	assert.Equal(t, DefaultPollInterval, l.pollInterval)
}

func TestNewRequiresCollaborators(t *testing.T) {
	cfg := Config{AccountID: "nft.testnet", MethodName: "nft_mint"}

	_, err := New(cfg, nil, func(context.Context, model.Delivery) error { return nil })
	assert.Error(t, err)

	_, err = New(cfg, &fakeClient{}, nil)
	assert.Error(t, err)
}

func TestResolveReference(t *testing.T) {
	assert.Equal(t, chain.Final(), ResolveReference(0))
	assert.Equal(t, chain.AtHeight(101), ResolveReference(100))
	assert.Equal(t, chain.AtHeight(2), ResolveReference(1))
}
