package sim

import (
	"fmt"
	"math/rand"
)

var nameAdjectives = []string{
	"Swift", "Alpha", "Beta", "Gamma", "Delta", "Quantum", "Crypto", "Digital",
	"Neural", "Cyber", "Virtual", "Rapid", "Smart", "Hyper", "Meta",
	"Omni", "Ultra", "Prime", "Mega", "Poly", "Sync", "Dyna", "Flux", "Nova",
}

var nameNouns = []string{
	"Trader", "Bot", "Agent", "Broker", "Dealer", "Miner", "Networker", "Solver",
	"Runner", "Market", "Exchange", "Protocol", "Analyzer", "Arbitrageur", "Node",
	"Validator", "Index", "Oracle", "Wallet", "Ledger", "Chain", "Block", "Hash",
}

// randomName produces an adjective+noun display name like "SwiftOracle".
func randomName(rng *rand.Rand) string {
	adj := nameAdjectives[rng.Intn(len(nameAdjectives))]
	noun := nameNouns[rng.Intn(len(nameNouns))]
	return adj + noun
}

// randomColor produces a vibrant hsl() color for the canvas marker.
func randomColor(rng *rand.Rand) string {
	hue := rng.Intn(360)
	saturation := 70 + rng.Intn(30) // 70-99%
	lightness := 45 + rng.Intn(15)  // 45-59%
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", hue, saturation, lightness)
}
