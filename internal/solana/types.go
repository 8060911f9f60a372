package solana

// Commitment levels accepted by the RPC node.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// MaxAccountsPerRequest is the node limit for getMultipleAccounts.
const MaxAccountsPerRequest = 100

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       []byte `json:"data"` // decoded from base64
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}
