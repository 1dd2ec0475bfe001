package chain

import (
	"fmt"

	"github.com/mr-tron/base58"
)

const hashLength = 32

// ValidateHash checks that s is a base58-encoded 32-byte hash.
func ValidateHash(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidHash)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidHash, s, err)
	}
	if len(raw) != hashLength {
		return fmt.Errorf("%w: %s: decoded length %d", ErrInvalidHash, s, len(raw))
	}
	return nil
}
