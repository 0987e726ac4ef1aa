package profile

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"
)

// EnvVar selects the active profile by name.
const EnvVar = "ACCOUNT_PROFILE"

// DefaultName is used when EnvVar is unset or unknown.
const DefaultName = "the5ers_10k_high_stakes"

var ErrUnknownProfile = errors.New("unknown account profile")

func the5ersPhases() []ChallengePhase {
	return []ChallengePhase{
		{Name: "Phase 1", ProfitTargetPct: 0.08, MinProfitableDays: 3, MinProfitPerDayPct: 0.005},
		{Name: "Phase 2", ProfitTargetPct: 0.05, MinProfitableDays: 3, MinProfitPerDayPct: 0.005},
	}
}

func the5ersHighStakes(name, display string, balance float64, concurrent int) AccountProfile {
	return AccountProfile{
		Name:                  name,
		DisplayName:           display,
		StartingBalance:       balance,
		Currency:              "USD",
		MaxDailyLossPct:       0.05,
		MaxTotalLossPct:       0.10,
		RiskPerTradePct:       0.01,
		MaxOpenRiskPct:        0.03,
		MaxConcurrentTrades:   concurrent,
		Phases:                the5ersPhases(),
		DailyLossBufferPct:    0.01,
		TotalLossBufferPct:    0.01,
		WeeklyCutoffDay:       time.Friday,
		WeeklyCutoffHourUTC:   20,
		MarketOpenDay:         time.Monday,
		OpenCooldownHours:     2,
		NewsBlackoutMinutes:   2,
		AllowWeekendHolding:   true,
		AllowOvernightHolding: true,
		Platform:              "MT5",
		HedgeMode:             true,
	}
}

// The5ers10KHighStakes is the default profile.
func The5ers10KHighStakes() AccountProfile {
	return the5ersHighStakes("the5ers_10k_high_stakes", "The5ers High Stakes 10K", 10_000, 3)
}

func The5ers100KHighStakes() AccountProfile {
	return the5ersHighStakes("the5ers_100k_high_stakes", "The5ers High Stakes 100K", 100_000, 5)
}

// catalog builds fresh values every call so callers can never mutate the
// shared definitions through the Phases slice.
func catalog() map[string]AccountProfile {
	return map[string]AccountProfile{
		"the5ers_10k_high_stakes":  The5ers10KHighStakes(),
		"the5ers_100k_high_stakes": The5ers100KHighStakes(),
	}
}

// Names lists the catalog profile names in sorted order.
func Names() []string {
	names := make([]string, 0, 2)
	for n := range catalog() {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named catalog profile.
func Lookup(name string) (AccountProfile, error) {
	p, ok := catalog()[name]
	if !ok {
		return AccountProfile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// Select returns the named profile, falling back to the default when the name
// is empty or not in the catalog.
func Select(name string) AccountProfile {
	if p, err := Lookup(name); err == nil {
		return p
	}
	return The5ers10KHighStakes()
}

// Active returns the profile named by $ACCOUNT_PROFILE.
func Active() AccountProfile {
	return Select(os.Getenv(EnvVar))
}
