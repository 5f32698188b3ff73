package provider

import (
	"strings"

	"swapd/pkg/types"
)

// mapRelayStatus maps Relay's status vocabulary onto the swap lifecycle.
// Unrecognized tokens read as bridging, never as a terminal state.
func mapRelayStatus(raw string) types.SwapStatus {
	switch strings.ToLower(raw) {
	case "success", "completed":
		return types.StatusCompleted
	case "failure", "failed":
		return types.StatusFailed
	case "refund", "refunded":
		return types.StatusRefunded
	default:
		// pending, waiting, submitted and anything unknown
		return types.StatusBridging
	}
}

// mapDeBridgeStatus maps deBridge's order states onto the swap lifecycle.
func mapDeBridgeStatus(raw string) types.SwapStatus {
	switch strings.ToLower(raw) {
	case "fulfilled", "sentunlock", "claimedunlock":
		return types.StatusCompleted
	case "cancelled":
		return types.StatusFailed
	case "sentordercancel", "claimedordercancel":
		return types.StatusRefunded
	default:
		// created and anything unknown
		return types.StatusBridging
	}
}
