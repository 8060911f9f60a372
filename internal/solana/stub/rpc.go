package stub

import (
	"context"
	"errors"
	"sync"

	"whirlpool-range-lab/internal/solana"
)

// ErrUnavailable is returned when the stub is configured to fail.
var ErrUnavailable = errors.New("rpc unavailable")

// RPCClient implements solana.RPCClient for testing.
// It serves accounts from memory and records every batched read.
type RPCClient struct {
	mu       sync.Mutex
	accounts map[string]*solana.AccountInfo
	slot     int64

	// Fail makes every call return ErrUnavailable.
	Fail bool

	accountInfoCalls int
	multipleCalls    [][]string
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		accounts: make(map[string]*solana.AccountInfo),
	}
}

// SetAccount stores raw account data under address.
func (c *RPCClient) SetAccount(address string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[address] = &solana.AccountInfo{Data: append([]byte(nil), data...)}
}

// SetSlot sets the slot returned by GetSlot.
func (c *RPCClient) SetSlot(slot int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot = slot
}

// GetAccountInfo returns the stored account or nil.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accountInfoCalls++
	if c.Fail {
		return nil, ErrUnavailable
	}
	return c.copyAccount(pubkey), nil
}

// GetMultipleAccounts returns stored accounts in request order.
func (c *RPCClient) GetMultipleAccounts(_ context.Context, pubkeys []string) ([]*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.multipleCalls = append(c.multipleCalls, append([]string(nil), pubkeys...))
	if c.Fail {
		return nil, ErrUnavailable
	}
	out := make([]*solana.AccountInfo, len(pubkeys))
	for i, k := range pubkeys {
		out[i] = c.copyAccount(k)
	}
	return out, nil
}

// GetSlot returns the configured slot.
func (c *RPCClient) GetSlot(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail {
		return 0, ErrUnavailable
	}
	return c.slot, nil
}

// AccountInfoCalls returns the number of GetAccountInfo calls.
func (c *RPCClient) AccountInfoCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accountInfoCalls
}

// MultipleAccountsCalls returns the address lists of every GetMultipleAccounts call.
func (c *RPCClient) MultipleAccountsCalls() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]string, len(c.multipleCalls))
	copy(out, c.multipleCalls)
	return out
}

func (c *RPCClient) copyAccount(address string) *solana.AccountInfo {
	acc, ok := c.accounts[address]
	if !ok {
		return nil
	}
	cp := *acc
	cp.Data = append([]byte(nil), acc.Data...)
	return &cp
}

var _ solana.RPCClient = (*RPCClient)(nil)
