package listener

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nearListener/internal/chain"
)

// ExtractLogs returns the transaction's own log lines followed by the log
// lines of each receipt, in the order the node listed them. Outcomes that do
// not carry resolved logs yield nothing.
func ExtractLogs(status *chain.TxStatus) []string {
	if status == nil || status.Outcome == nil || status.Outcome.Kind != chain.OutcomeResolved {
		return nil
	}

	outcome := status.Outcome
	logs := make([]string, 0, len(outcome.TransactionOutcome.Outcome.Logs))
	logs = append(logs, outcome.TransactionOutcome.Outcome.Logs...)
	for _, receipt := range outcome.ReceiptsOutcome {
		logs = append(logs, receipt.Outcome.Logs...)
	}
	return logs
}

func (l *Listener) fetchLogs(ctx context.Context, m Match) ([]string, error) {
	status, err := l.client.TxStatus(ctx, m.TxHash, m.SignerID, l.waitUntil)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch tx status %s: %w", ErrRPC, m.TxHash, err)
	}

	switch {
	case status.Outcome == nil:
		l.logger.Warn("transaction has no final outcome", zap.String("tx_hash", m.TxHash), zap.String("status", status.FinalExecutionStatus))
	case status.Outcome.Kind != chain.OutcomeResolved:
		l.logger.Warn("transaction outcome carries no resolved logs", zap.String("tx_hash", m.TxHash), zap.Stringer("kind", status.Outcome.Kind))
	}

	logs := ExtractLogs(status)
	l.logger.Debug("fetched logs", zap.String("tx_hash", m.TxHash), zap.Int("logs", len(logs)))
	return logs, nil
}
