package chain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FinalityFinal selects the latest block that can no longer be reverted.
const FinalityFinal = "final"

// Execution statuses accepted by the tx method's wait_until parameter.
const (
	WaitNone               = "NONE"
	WaitIncluded           = "INCLUDED"
	WaitExecutedOptimistic = "EXECUTED_OPTIMISTIC"
	WaitIncludedFinal      = "INCLUDED_FINAL"
	WaitExecuted           = "EXECUTED"
	WaitFinal              = "FINAL"
)

// ActionFunctionCall is the action kind that invokes a contract method.
const ActionFunctionCall = "FunctionCall"

// BlockReference selects a block either by finality or by explicit height.
type BlockReference struct {
	Finality string
	Height   uint64
}

// Final references the latest final block.
func Final() BlockReference {
	return BlockReference{Finality: FinalityFinal}
}

// AtHeight references the block at height h.
func AtHeight(h uint64) BlockReference {
	return BlockReference{Height: h}
}

// IsFinality reports whether the reference selects by finality.
func (r BlockReference) IsFinality() bool {
	return r.Finality != ""
}

func (r BlockReference) String() string {
	if r.IsFinality() {
		return "finality:" + r.Finality
	}
	return "height:" + strconv.FormatUint(r.Height, 10)
}

// MarshalJSON encodes the reference as the params object of the block method.
func (r BlockReference) MarshalJSON() ([]byte, error) {
	if r.IsFinality() {
		return json.Marshal(struct {
			Finality string `json:"finality"`
		}{r.Finality})
	}
	return json.Marshal(struct {
		BlockID uint64 `json:"block_id"`
	}{r.Height})
}

// Block is the subset of a block view the listener reads.
type Block struct {
	Author string        `json:"author"`
	Header BlockHeader   `json:"header"`
	Chunks []ChunkHeader `json:"chunks"`
}

type BlockHeader struct {
	Height    uint64 `json:"height"`
	Hash      string `json:"hash"`
	PrevHash  string `json:"prev_hash"`
	Timestamp uint64 `json:"timestamp"`
}

type ChunkHeader struct {
	ChunkHash      string `json:"chunk_hash"`
	ShardID        uint64 `json:"shard_id"`
	HeightCreated  uint64 `json:"height_created"`
	HeightIncluded uint64 `json:"height_included"`
}

// Chunk holds the ordered transactions of one shard chunk.
type Chunk struct {
	Author       string        `json:"author"`
	Header       ChunkHeader   `json:"header"`
	Transactions []Transaction `json:"transactions"`
}

type Transaction struct {
	SignerID   string   `json:"signer_id"`
	ReceiverID string   `json:"receiver_id"`
	Hash       string   `json:"hash"`
	Nonce      uint64   `json:"nonce"`
	Actions    []Action `json:"actions"`
}

// Action is one action of a transaction. Only function calls carry a body
// the listener reads; other kinds keep their name.
type Action struct {
	Kind         string
	FunctionCall *FunctionCall
}

type FunctionCall struct {
	MethodName string `json:"method_name"`
	Args       string `json:"args"`
	Gas        uint64 `json:"gas"`
	Deposit    string `json:"deposit"`
}

// UnmarshalJSON accepts both the bare string form ("CreateAccount") and the
// externally tagged object form ({"FunctionCall": {...}}).
func (a *Action) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*a = Action{Kind: name}
		return nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("decode action: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("decode action: expected one variant, got %d", len(tagged))
	}

	for kind, body := range tagged {
		*a = Action{Kind: kind}
		if kind != ActionFunctionCall {
			continue
		}
		var call FunctionCall
		if err := json.Unmarshal(body, &call); err != nil {
			return fmt.Errorf("decode function call: %w", err)
		}
		a.FunctionCall = &call
	}
	return nil
}

// MethodName returns the invoked method for function calls and "" otherwise.
func (a Action) MethodName() string {
	if a.FunctionCall == nil {
		return ""
	}
	return a.FunctionCall.MethodName
}

// OutcomeKind tells which final outcome representation the node returned.
type OutcomeKind int

const (
	// OutcomeResolved carries the transaction outcome and every receipt outcome.
	OutcomeResolved OutcomeKind = iota
	// OutcomeWithReceipt is the representation that also lists raw receipts.
	// Logs are not read from it.
	OutcomeWithReceipt
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeResolved:
		return "resolved"
	case OutcomeWithReceipt:
		return "with_receipt"
	default:
		return "unknown"
	}
}

// TxStatus is the response of the tx method. Outcome is nil when the node
// has not produced a final outcome for the requested wait level.
type TxStatus struct {
	FinalExecutionStatus string
	Outcome              *FinalOutcome
}

type FinalOutcome struct {
	Kind               OutcomeKind
	TransactionOutcome OutcomeWithID
	ReceiptsOutcome    []OutcomeWithID
}

type OutcomeWithID struct {
	ID        string           `json:"id"`
	BlockHash string           `json:"block_hash"`
	Outcome   ExecutionOutcome `json:"outcome"`
}

type ExecutionOutcome struct {
	Logs       []string `json:"logs"`
	ReceiptIDs []string `json:"receipt_ids"`
	GasBurnt   uint64   `json:"gas_burnt"`
	ExecutorID string   `json:"executor_id"`
}

func (s *TxStatus) UnmarshalJSON(data []byte) error {
	var raw struct {
		FinalExecutionStatus string          `json:"final_execution_status"`
		TransactionOutcome   *OutcomeWithID  `json:"transaction_outcome"`
		ReceiptsOutcome      []OutcomeWithID `json:"receipts_outcome"`
		Receipts             json.RawMessage `json:"receipts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = TxStatus{FinalExecutionStatus: raw.FinalExecutionStatus}
	if raw.TransactionOutcome == nil {
		return nil
	}

	kind := OutcomeResolved
	if len(raw.Receipts) > 0 && string(raw.Receipts) != "null" {
		kind = OutcomeWithReceipt
	}
	s.Outcome = &FinalOutcome{
		Kind:               kind,
		TransactionOutcome: *raw.TransactionOutcome,
		ReceiptsOutcome:    raw.ReceiptsOutcome,
	}
	return nil
}

// NodeStatus is the subset of the status method result used at startup.
type NodeStatus struct {
	ChainID  string   `json:"chain_id"`
	Version  Version  `json:"version"`
	SyncInfo SyncInfo `json:"sync_info"`
}

type Version struct {
	Version string `json:"version"`
	Build   string `json:"build"`
}

type SyncInfo struct {
	LatestBlockHeight uint64 `json:"latest_block_height"`
	LatestBlockHash   string `json:"latest_block_hash"`
	Syncing           bool   `json:"syncing"`
}
