package reconciler

import "raffle-sync-go/internal/models"

// EffectivePhase derives the displayed phase. The contract's CALCULATING always wins;
// an expired countdown with players means the draw is underway even if the contract
// has not caught up yet. Once a round has been shown as CALCULATING (latched) it
// stays so until the contract reports a new round or RoundStarted fires. Without players the contract
// phase is shown as-is.
func EffectivePhase(contractPhase models.RafflePhase, remaining int64, players uint64, latched bool) models.RafflePhase {
	if contractPhase == models.PhaseCalculating || latched {
		return models.PhaseCalculating
	}
	if players == 0 {
		return contractPhase
	}
	if remaining <= 0 {
		return models.PhaseCalculating
	}
	return models.PhaseOpen
}
