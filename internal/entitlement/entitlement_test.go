package entitlement

import (
	"testing"
	"time"

	"github.com/menuqr/menuqr/internal/models"
	"github.com/menuqr/menuqr/internal/plans"
)

func TestSoftLimitNeverBlocks(t *testing.T) {
	limits := []int64{-1, 0, 1, 7, 50, 1000}
	for _, limit := range limits {
		for current := int64(-2); current <= 3*limit+5; current++ {
			for _, grandfathered := range []bool{false, true} {
				if got := SoftLimitStatus(current, limit, grandfathered); got.ShouldBlock {
					t.Fatalf("current=%d limit=%d grandfathered=%v: ShouldBlock must be false", current, limit, grandfathered)
				}
			}
		}
	}
}

func TestSoftLimitLevelIsMonotonic(t *testing.T) {
	for _, limit := range []int64{1, 3, 20, 50, 97, 1000} {
		prev := LevelNormal
		for current := int64(0); current <= 2*limit; current++ {
			got := SoftLimitStatus(current, limit, false).Level
			if got.Rank() < prev.Rank() {
				t.Fatalf("limit=%d: level went from %s to %s at %d", limit, prev, got, current)
			}
			prev = got
		}
	}
}

func TestSoftLimitExactBoundaries(t *testing.T) {
	cases := []struct {
		current int64
		want    Level
	}{
		{0, LevelNormal},
		{79, LevelNormal},
		{80, LevelWarning},
		{94, LevelWarning},
		{95, LevelUrgent},
		{99, LevelUrgent},
		{100, LevelCritical},
		{250, LevelCritical},
	}
	for _, tc := range cases {
		got := SoftLimitStatus(tc.current, 100, false)
		if got.Level != tc.want {
			t.Fatalf("current=%d: expected %s, got %s", tc.current, tc.want, got.Level)
		}
		if got.ShouldNotify != (tc.want != LevelNormal) {
			t.Fatalf("current=%d: unexpected ShouldNotify=%v", tc.current, got.ShouldNotify)
		}
	}
	if got := SoftLimitStatus(80, 100, false); got.Percentage != 80 {
		t.Fatalf("expected percentage 80, got %v", got.Percentage)
	}
}

func TestSoftLimitGrandfatheredCapsAtWarning(t *testing.T) {
	for _, current := range []int64{95, 100, 500} {
		got := SoftLimitStatus(current, 100, true)
		if got.Level != LevelWarning {
			t.Fatalf("current=%d: expected warning for grandfathered, got %s", current, got.Level)
		}
		if !got.ShouldNotify || got.Message == "" {
			t.Fatalf("current=%d: expected a notification message", current)
		}
	}
	if got := SoftLimitStatus(10, 100, true); got.Level != LevelNormal {
		t.Fatalf("expected normal below threshold, got %s", got.Level)
	}
}

func TestSoftLimitWithoutCap(t *testing.T) {
	got := SoftLimitStatus(10_000, 0, false)
	if got.Level != LevelNormal || got.Percentage != 0 || got.ShouldNotify {
		t.Fatalf("expected normal with zero percentage, got %+v", got)
	}
}

func TestPizzaRomaFreemiumScenario(t *testing.T) {
	limit := int64(plans.Details[plans.Freemium].MaxScansPerMonth)
	if got := SoftLimitStatus(39, limit, false).Level; got != LevelNormal {
		t.Fatalf("39 scans: expected normal, got %s", got)
	}
	if got := SoftLimitStatus(40, limit, false).Level; got != LevelWarning {
		t.Fatalf("40 scans: expected warning, got %s", got)
	}
	if got := SoftLimitStatus(49, limit, false).Level; got != LevelWarning {
		t.Fatalf("49 scans: expected warning, got %s", got)
	}
	at50 := SoftLimitStatus(50, limit, false)
	if at50.Level != LevelCritical || at50.ShouldBlock {
		t.Fatalf("50 scans: expected critical and not blocking, got %+v", at50)
	}
}

func TestFeatureStatus(t *testing.T) {
	got := FeatureStatus(plans.Freemium, plans.FeatureReservations, false)
	if got.HasAccess || !got.ShouldPromote {
		t.Fatalf("expected promotion without access, got %+v", got)
	}
	if got.SuggestedPlan != plans.Growth {
		t.Fatalf("expected GROWTH suggestion, got %q", got.SuggestedPlan)
	}

	granted := FeatureStatus(plans.Growth, plans.FeatureReservations, false)
	if !granted.HasAccess || granted.ShouldPromote || granted.IsLimited {
		t.Fatalf("expected plain access, got %+v", granted)
	}

	legacy := FeatureStatus(plans.Freemium, plans.FeatureAPIAccess, true)
	if !legacy.HasAccess || !legacy.IsLimited || legacy.ShouldPromote {
		t.Fatalf("expected grandfathered access, got %+v", legacy)
	}

	top := FeatureStatus(plans.Enterprise, plans.Feature("TELEPORTATION"), false)
	if top.HasAccess || top.SuggestedPlan != "" {
		t.Fatalf("expected no suggestion above enterprise, got %+v", top)
	}
}

func TestPolicyIsGrandfathered(t *testing.T) {
	sub := models.Subscription{CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	if !(Policy{}).IsGrandfathered(sub) {
		t.Fatalf("zero cutoff must grandfather everyone")
	}
	cutoff := Policy{GrandfatherCutoff: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	if !cutoff.IsGrandfathered(sub) {
		t.Fatalf("subscription before cutoff must be grandfathered")
	}
	sub.CreatedAt = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	if cutoff.IsGrandfathered(sub) {
		t.Fatalf("subscription after cutoff must not be grandfathered")
	}
}

func TestEvaluate(t *testing.T) {
	sub, err := models.NewSubscription(1, plans.Freemium)
	if err != nil {
		t.Fatalf("new subscription: %v", err)
	}
	stats := models.UsageStats{UserID: 1, RestaurantCount: 1, ScansThisMonth: 48}
	report := Evaluate(sub, stats, false)
	if report.Scans.Level != LevelUrgent {
		t.Fatalf("expected urgent scans, got %s", report.Scans.Level)
	}
	if report.Restaurants.Level != LevelCritical {
		t.Fatalf("expected critical restaurants (1/1), got %s", report.Restaurants.Level)
	}
	if report.HighestLevel != LevelCritical || !report.ShouldNotify {
		t.Fatalf("unexpected aggregate: %+v", report)
	}
	if len(report.Features) != len(plans.AllFeatures) {
		t.Fatalf("expected %d feature entries, got %d", len(plans.AllFeatures), len(report.Features))
	}
}

func TestEvaluateReadsFeaturesFromSnapshot(t *testing.T) {
	sub, err := models.NewSubscription(1, plans.Growth)
	if err != nil {
		t.Fatalf("new subscription: %v", err)
	}
	// The catalog grants table ordering to GROWTH; this subscription was
	// assigned before it did.
	sub.Features[string(plans.FeatureTableOrdering)] = false
	// It also carries a feature the catalog does not list for GROWTH.
	sub.Features[string(plans.FeatureAPIAccess)] = true

	report := Evaluate(sub, models.UsageStats{UserID: 1}, false)
	access := make(map[plans.Feature]Access, len(report.Features))
	for _, a := range report.Features {
		access[a.Feature] = a
	}
	if got := access[plans.FeatureTableOrdering]; got.HasAccess || !got.ShouldPromote {
		t.Fatalf("expected snapshot to withhold table ordering, got %+v", got)
	}
	if got := access[plans.FeatureAPIAccess]; !got.HasAccess || got.IsLimited {
		t.Fatalf("expected snapshot to keep api access, got %+v", got)
	}
	if SubscriptionFeatureStatus(sub, plans.FeatureTableOrdering, true).IsLimited != true {
		t.Fatalf("expected grandfathered access outside the snapshot to be limited")
	}
	if !HasFeature(plans.Growth, plans.FeatureTableOrdering) {
		t.Fatalf("expected the catalog to still grant table ordering to growth")
	}
}
