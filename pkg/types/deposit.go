package types

// DepositLeg is one "<amount> <token>" part of a deposit command
type DepositLeg struct {
	Amount string
	Token  string
}

// DepositRequest represents a user's deposit command
type DepositRequest struct {
	VaultID int
	Legs    []DepositLeg
}
