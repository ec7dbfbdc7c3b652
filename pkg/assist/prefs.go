package assist

import (
	"github.com/harrisonrobin/organizer/pkg/store"
	"github.com/harrisonrobin/organizer/pkg/suggest"
)

const (
	// Only the most recent actions count so old habits fade out.
	prefsWindow = 50
	// A type needs this many accept/dismiss data points before it moves a threshold.
	prefsMinSamples = 5

	minLookaheadDays = 2
	maxLookaheadDays = 5
	minRatio         = 0.5
	maxRatio         = 1.0
)

// AcceptanceRates returns accepted/(accepted+dismissed) per suggestion type
// over the last prefsWindow actions, along with the sample count per type.
func AcceptanceRates(actions []suggest.ActionRecord) (map[suggest.Type]float64, map[suggest.Type]int) {
	if len(actions) > prefsWindow {
		actions = actions[len(actions)-prefsWindow:]
	}
	accepted := map[suggest.Type]int{}
	total := map[suggest.Type]int{}
	for _, a := range actions {
		switch a.Action {
		case suggest.ActionAccepted:
			accepted[a.Type]++
			total[a.Type]++
		case suggest.ActionDismissed:
			total[a.Type]++
		}
	}
	rates := make(map[suggest.Type]float64, len(total))
	for t, n := range total {
		rates[t] = float64(accepted[t]) / float64(n)
	}
	return rates, total
}

// AdaptPreferences nudges the grocery thresholds toward what the user accepts.
// Each threshold has a dead band where it keeps its current value, so an
// acceptance rate hovering near a boundary cannot flip it back and forth, and
// every result is clamped to fixed bounds.
func AdaptPreferences(current store.Preferences, actions []suggest.ActionRecord) store.Preferences {
	rates, samples := AcceptanceRates(actions)
	next := current

	if samples[suggest.TypeGroceryExpiring] >= prefsMinSamples {
		switch r := rates[suggest.TypeGroceryExpiring]; {
		case r < 0.3:
			next.ExpiryLookaheadDays = 2
		case r > 0.7:
			next.ExpiryLookaheadDays = 5
		}
	}
	if samples[suggest.TypeGroceryRepurchase] >= prefsMinSamples {
		switch r := rates[suggest.TypeGroceryRepurchase]; {
		case r > 0.6:
			next.RepurchaseRatio = 0.7
		case r < 0.4:
			next.RepurchaseRatio = store.DefaultRepurchaseRatio
		}
	}

	if next.ExpiryLookaheadDays != 0 {
		next.ExpiryLookaheadDays = min(max(next.ExpiryLookaheadDays, minLookaheadDays), maxLookaheadDays)
	}
	if next.RepurchaseRatio != 0 {
		next.RepurchaseRatio = min(max(next.RepurchaseRatio, minRatio), maxRatio)
	}
	return next
}
