package listener

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nearListener/internal/chain"
)

// Match is a transaction that invoked the watched method on the watched
// account.
type Match struct {
	ChunkHash  string
	TxHash     string
	SignerID   string
	ReceiverID string
}

// MatchTransaction reports whether tx is addressed to accountID and carries a
// function call to methodName.
func MatchTransaction(tx chain.Transaction, accountID, methodName string) bool {
	if tx.ReceiverID != accountID {
		return false
	}
	for _, action := range tx.Actions {
		if action.Kind == chain.ActionFunctionCall && action.MethodName() == methodName {
			return true
		}
	}
	return false
}

// scanBlock walks the chunks of block in order and returns the matching
// transactions. Unless scanAll is set it stops at the first match.
func (l *Listener) scanBlock(ctx context.Context, block *chain.Block) ([]Match, error) {
	var matches []Match
	for _, header := range block.Chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk, err := l.client.Chunk(ctx, header.ChunkHash)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch chunk %s: %w", ErrRPC, header.ChunkHash, err)
		}

		for _, tx := range chunk.Transactions {
			if !MatchTransaction(tx, l.cfg.AccountID, l.cfg.MethodName) {
				continue
			}

			l.logger.Debug("matched transaction",
				zap.Uint64("height", block.Header.Height),
				zap.String("chunk", header.ChunkHash),
				zap.String("tx_hash", tx.Hash),
				zap.String("signer_id", tx.SignerID),
			)
			matches = append(matches, Match{
				ChunkHash:  header.ChunkHash,
				TxHash:     tx.Hash,
				SignerID:   tx.SignerID,
				ReceiverID: tx.ReceiverID,
			})
			if !l.scanAll {
				return matches, nil
			}
		}
	}
	return matches, nil
}
