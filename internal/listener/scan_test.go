package listener

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearListener/internal/chain"
)

func TestMatchTransaction(t *testing.T) {
	cases := []struct {
		name string
		tx   chain.Transaction
		want bool
	}{
		{"match", callTx("h", testAccount, testMethod), true},
		{"other receiver", callTx("h", "market.testnet", testMethod), false},
		{"other method", callTx("h", testAccount, "nft_transfer"), false},
		{"transfer only", chain.Transaction{ReceiverID: testAccount, Actions: []chain.Action{{Kind: "Transfer"}}}, false},
		{"no actions", chain.Transaction{ReceiverID: testAccount}, false},
		{
			"second action matches",
			chain.Transaction{ReceiverID: testAccount, Actions: []chain.Action{{Kind: "CreateAccount"}, callAction(testMethod)}},
			true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MatchTransaction(tc.tx, testAccount, testMethod))
		})
	}
}

func scanFixture() *fakeClient {
	return &fakeClient{
		chunks: map[string]*chain.Chunk{
			"chunk-a": {Transactions: []chain.Transaction{
				callTx("tx-0", "market.testnet", testMethod),
				callTx("tx-1", testAccount, testMethod),
				callTx("tx-2", testAccount, testMethod),
			}},
			"chunk-b": {Transactions: []chain.Transaction{
				callTx("tx-3", testAccount, testMethod),
			}},
		},
	}
}

func TestScanBlockStopsAtFirstMatch(t *testing.T) {
	client := scanFixture()
	l := newTestListener(t, client, &recorder{}, 1)

	matches, err := l.scanBlock(context.Background(), blockAt(2, "chunk-a", "chunk-b"))
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, Match{ChunkHash: "chunk-a", TxHash: "tx-1", SignerID: "alice.testnet", ReceiverID: testAccount}, matches[0])
	assert.Equal(t, []string{"chunk-a"}, client.chunkCalls)
}

func TestScanBlockAllMatches(t *testing.T) {
	client := scanFixture()
	l := newTestListener(t, client, &recorder{}, 1, WithScanAll(true))

	matches, err := l.scanBlock(context.Background(), blockAt(2, "chunk-a", "chunk-b"))
	require.NoError(t, err)

	var hashes []string
	for _, m := range matches {
		hashes = append(hashes, m.TxHash)
	}
	assert.Equal(t, []string{"tx-1", "tx-2", "tx-3"}, hashes)
	assert.Equal(t, []string{"chunk-a", "chunk-b"}, client.chunkCalls)
}

func TestScanBlockWithoutMatches(t *testing.T) {
	client := scanFixture()
	l := newTestListener(t, client, &recorder{}, 1)

	matches, err := l.scanBlock(context.Background(), blockAt(2, "chunk-x", "chunk-y"))
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, []string{"chunk-x", "chunk-y"}, client.chunkCalls)
}

func TestScanBlockHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := scanFixture()
	l := newTestListener(t, client, &recorder{}, 1)

	_, err := l.scanBlock(ctx, blockAt(2, "chunk-a"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.chunkCalls)
}

func TestExtractLogsOrder(t *testing.T) {
	status := resolved([]string{"tx-a", "tx-b"}, []string{"r1-a"}, nil, []string{"r3-a", "r3-b"})
	assert.Equal(t, []string{"tx-a", "tx-b", "r1-a", "r3-a", "r3-b"}, ExtractLogs(status))
}

func TestExtractLogsIgnoresUnresolvedOutcomes(t *testing.T) {
	withReceipt := resolved([]string{"tx-a"}, []string{"r1-a"})
	withReceipt.Outcome.Kind = chain.OutcomeWithReceipt

	assert.Empty(t, ExtractLogs(withReceipt))
	assert.Empty(t, ExtractLogs(&chain.TxStatus{FinalExecutionStatus: chain.WaitNone}))
	assert.Empty(t, ExtractLogs(nil))
}

func TestFetchLogsRequestsConfiguredWaitLevel(t *testing.T) {
	client := &fakeClient{
		txs: map[string]*chain.TxStatus{"tx-1": resolved([]string{"hello"})},
	}
	l := newTestListener(t, client, &recorder{}, 1, WithWaitUntil(chain.WaitExecuted))

	logs, err := l.fetchLogs(context.Background(), Match{TxHash: "tx-1", SignerID: "alice.testnet"})
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, logs)
	assert.Equal(t, []txCall{{hash: "tx-1", sender: "alice.testnet", waitUntil: chain.WaitExecuted}}, client.txCalls)
}
