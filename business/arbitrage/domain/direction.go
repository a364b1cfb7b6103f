// Package domain contains the core domain types for the arbitrage context.
package domain

// Direction identifies which leg of a two-venue (or two-hop) trade buys and
// which sells, independent of which concrete venues are involved.
type Direction string

const (
	// DirectionBuyFirstSellSecond buys on the opportunity's first venue and
	// sells on its second, for both the CEX-CEX and DEX-CEX shapes.
	DirectionBuyFirstSellSecond Direction = "BUY_FIRST_SELL_SECOND"

	// DirectionBuySecondSellFirst buys on the opportunity's second venue and
	// sells on its first, the mirror of DirectionBuyFirstSellSecond.
	DirectionBuySecondSellFirst Direction = "BUY_SECOND_SELL_FIRST"

	// DirectionTriAPTToAMI walks the triangular path buying APT on a CEX,
	// swapping APT to AMI on the DEX, then selling AMI back on the CEX.
	DirectionTriAPTToAMI Direction = "APT_TO_AMI"

	// DirectionTriAMIToAPT is the mirror path: buy AMI on a CEX, swap AMI to
	// APT on the DEX, sell APT back on the CEX.
	DirectionTriAMIToAPT Direction = "AMI_TO_APT"
)

// String returns a human-readable description of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionBuyFirstSellSecond:
		return "buy first venue, sell second venue"
	case DirectionBuySecondSellFirst:
		return "buy second venue, sell first venue"
	case DirectionTriAPTToAMI:
		return "triangular: APT to AMI"
	case DirectionTriAMIToAPT:
		return "triangular: AMI to APT"
	default:
		return "unknown"
	}
}
