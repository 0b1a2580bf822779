package history

import (
	"time"

	"github.com/google/uuid"
)

// Status defines the outcome of a deposit attempt
type Status string

const (
	StatusPending   Status = "pending"   // Approvals or commit still running
	StatusCompleted Status = "completed" // mintThenDeposit confirmed
	StatusFailed    Status = "failed"    // Rejected, reverted or network failure
)

// Leg is one token of a deposit
type Leg struct {
	Symbol string `json:"symbol"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

// Record is a single deposit attempt into a vault
type Record struct {
	ID        string    `json:"id"`
	FlowID    string    `json:"flow_id"`
	VaultID   int       `json:"vault_id"`
	Vault     string    `json:"vault"`
	Mode      string    `json:"mode"`
	Legs      []Leg     `json:"legs"`
	Approvals []string  `json:"approvals,omitempty"` // approval tx hashes
	TxHash    string    `json:"tx_hash,omitempty"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

// NewRecord starts a pending record
func NewRecord(flowID string, vaultID int, vaultName, mode string, legs ...Leg) *Record {
	now := time.Now()
	return &Record{
		ID:      uuid.New().String(),
		FlowID:  flowID,
		VaultID: vaultID,
		Vault:   vaultName,
		Mode:    mode,
		Legs:    legs,
		Status:  StatusPending,
		Created: now,
		Updated: now,
	}
}

// Complete marks the record as confirmed
func (r *Record) Complete(txHash string) {
	r.TxHash = txHash
	r.Status = StatusCompleted
	r.Error = ""
	r.Updated = time.Now()
}

// Fail marks the record as failed with err
func (r *Record) Fail(err error) {
	r.Status = StatusFailed
	if err != nil {
		r.Error = err.Error()
	}
	r.Updated = time.Now()
}

// AddApproval remembers an approval transaction
func (r *Record) AddApproval(txHash string) {
	r.Approvals = append(r.Approvals, txHash)
	r.Updated = time.Now()
}
