package listener

import "nearListener/internal/chain"

// ResolveReference picks the block to request after cursor: the latest final
// block when nothing was processed yet, otherwise the next height.
func ResolveReference(cursor uint64) chain.BlockReference {
	if cursor == 0 {
		return chain.Final()
	}
	return chain.AtHeight(cursor + 1)
}
