package types

import "fmt"

// Side selects one of the two vault tokens
type Side int

const (
	SideA Side = iota // token0
	SideB             // token1
)

// Sides lists both sides in order
var Sides = []Side{SideA, SideB}

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Other returns the opposite side
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// DepositMode is either DualSided or SingleSided
type DepositMode interface {
	Deposits(side Side) bool
	String() string
	depositMode()
}

// DualSided deposits both tokens of the pair
type DualSided struct{}

// SingleSided deposits only the token on Side
type SingleSided struct {
	Side Side
}

func (DualSided) Deposits(Side) bool { return true }
func (DualSided) String() string     { return "dual-sided" }
func (DualSided) depositMode()       {}

func (m SingleSided) Deposits(side Side) bool { return side == m.Side }
func (m SingleSided) String() string          { return fmt.Sprintf("single-sided(%s)", m.Side) }
func (SingleSided) depositMode()              {}

// SameMode reports whether two modes are the same variant
func SameMode(a, b DepositMode) bool {
	switch x := a.(type) {
	case DualSided:
		_, ok := b.(DualSided)
		return ok
	case SingleSided:
		y, ok := b.(SingleSided)
		return ok && x.Side == y.Side
	default:
		return false
	}
}

// AmountPair holds the amounts of a deposit attempt
type AmountPair struct {
	A    Amount
	B    Amount
	Mode DepositMode
}

// DualSidedPair builds a pair depositing both tokens
func DualSidedPair(a, b Amount) AmountPair {
	return AmountPair{A: a, B: b, Mode: DualSided{}}
}

// SingleSidedPair builds a pair depositing only the token on side
func SingleSidedPair(side Side, a, b Amount) AmountPair {
	return AmountPair{A: a, B: b, Mode: SingleSided{Side: side}}
}

// Amount returns the amount on the given side
func (p AmountPair) Amount(side Side) Amount {
	if side == SideA {
		return p.A
	}
	return p.B
}

// Deposited returns the amount actually sent for the side, zero when the mode skips it
func (p AmountPair) Deposited(side Side) Amount {
	amount := p.Amount(side)
	if p.Mode == nil || !p.Mode.Deposits(side) {
		return ZeroAmount(amount.Asset)
	}
	return amount
}

// Relevant returns the sides that need an allowance: deposited by the mode and non-zero
func (p AmountPair) Relevant() []Side {
	sides := make([]Side, 0, 2)
	for _, side := range Sides {
		if !p.Deposited(side).IsZero() {
			sides = append(sides, side)
		}
	}
	return sides
}

func (p AmountPair) String() string {
	mode := "unknown"
	if p.Mode != nil {
		mode = p.Mode.String()
	}
	return fmt.Sprintf("%s + %s (%s)", p.A, p.B, mode)
}
