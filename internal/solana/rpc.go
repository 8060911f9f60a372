package solana

import "context"

// RPCClient defines the Solana RPC HTTP reads used by the pool viewer.
type RPCClient interface {
	// GetAccountInfo retrieves a single account. Returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetMultipleAccounts retrieves accounts in request order.
	// Missing accounts are returned as nil entries.
	GetMultipleAccounts(ctx context.Context, pubkeys []string) ([]*AccountInfo, error)

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (int64, error)
}
