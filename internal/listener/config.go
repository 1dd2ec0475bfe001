package listener

import "errors"

// ErrMissingField matches every *ConfigError.
var ErrMissingField = errors.New("missing field")

// Config identifies what the listener watches. It is fixed once New returns.
type Config struct {
	RPCEndpoint string
	AccountID   string
	MethodName  string
	// StartHeight is the last block already processed; 0 starts from the
	// latest final block.
	StartHeight uint64
}

// ConfigError names the first required field that was left empty.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return "missing field: " + e.Field
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingField
}

// Validate checks required fields in order: account_id, then method_name.
func (c Config) Validate() error {
	if c.AccountID == "" {
		return &ConfigError{Field: "account_id"}
	}
	if c.MethodName == "" {
		return &ConfigError{Field: "method_name"}
	}
	return nil
}
