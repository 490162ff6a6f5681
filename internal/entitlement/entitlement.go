// Package entitlement decides feature access and soft-limit notifications.
// It never denies an action: ShouldBlock stays false under the current policy
// and callers only escalate UI notices.
package entitlement

import (
	"fmt"
	"math"
	"time"

	"github.com/menuqr/menuqr/internal/models"
	"github.com/menuqr/menuqr/internal/plans"
)

// Level is the severity band of a soft limit.
type Level string

const (
	LevelNormal   Level = "normal"
	LevelWarning  Level = "warning"
	LevelUrgent   Level = "urgent"
	LevelCritical Level = "critical"
)

// Band thresholds in percent of the limit.
const (
	WarningPercent  = 80
	UrgentPercent   = 95
	CriticalPercent = 100
)

var levelRank = map[Level]int{LevelNormal: 0, LevelWarning: 1, LevelUrgent: 2, LevelCritical: 3}

// Rank orders levels by severity.
func (l Level) Rank() int { return levelRank[l] }

// Access is the outcome of a feature gate check.
type Access struct {
	Feature       plans.Feature `json:"feature"`
	HasAccess     bool          `json:"hasAccess"`
	IsLimited     bool          `json:"isLimited"`
	ShouldPromote bool          `json:"shouldPromote"`
	Message       string        `json:"message,omitempty"`
	SuggestedPlan plans.Plan    `json:"suggestedPlan,omitempty"`
}

// Limit is the outcome of a soft-limit check.
type Limit struct {
	Current      int64   `json:"current"`
	Max          int64   `json:"max"`
	Level        Level   `json:"level"`
	Percentage   float64 `json:"percentage"`
	ShouldBlock  bool    `json:"shouldBlock"`
	ShouldNotify bool    `json:"shouldNotify"`
	Message      string  `json:"message,omitempty"`
}

// HasFeature reports whether the catalog grants feature to plan.
func HasFeature(plan plans.Plan, feature plans.Feature) bool {
	detail, ok := plans.Lookup(plan)
	if !ok {
		return false
	}
	return detail.Has(feature)
}

// FeatureStatus evaluates a feature gate against the catalog. Grandfathered
// callers always have access; access they only hold through grandfathering is
// flagged IsLimited.
func FeatureStatus(plan plans.Plan, feature plans.Feature, grandfathered bool) Access {
	return featureAccess(plan, feature, HasFeature(plan, feature), grandfathered)
}

// SubscriptionFeatureStatus is FeatureStatus for a stored subscription. The
// grant comes from the features snapshot taken when the plan was assigned.
func SubscriptionFeatureStatus(sub models.Subscription, feature plans.Feature, grandfathered bool) Access {
	return featureAccess(sub.Plan, feature, sub.HasFeature(feature), grandfathered)
}

func featureAccess(plan plans.Plan, feature plans.Feature, granted, grandfathered bool) Access {
	out := Access{Feature: feature, HasAccess: granted}
	if granted {
		return out
	}
	if grandfathered {
		out.HasAccess = true
		out.IsLimited = true
		out.Message = fmt.Sprintf("%s stays available on your current plan as an early customer.", featureLabel(feature))
		return out
	}

	out.ShouldPromote = true
	suggested, found := cheapestWith(plan, feature)
	if !found {
		out.Message = fmt.Sprintf("%s is not available on any higher plan.", featureLabel(feature))
		return out
	}
	out.SuggestedPlan = suggested.Plan
	out.Message = fmt.Sprintf("Upgrade to %s to unlock %s.", suggested.Name, featureLabel(feature))
	return out
}

// cheapestWith scans tiers above plan in ascending price order.
func cheapestWith(plan plans.Plan, feature plans.Feature) (plans.Detail, bool) {
	for _, candidate := range plans.Higher(plan) {
		if candidate.Has(feature) {
			return candidate, true
		}
	}
	return plans.Detail{}, false
}

// SoftLimitStatus classifies usage against a nominal cap. A non-positive
// limit means no cap and always yields normal.
func SoftLimitStatus(current, limit int64, grandfathered bool) Limit {
	out := Limit{Current: current, Max: limit, Level: LevelNormal}
	if limit <= 0 {
		return out
	}
	if current < 0 {
		current = 0
	}
	out.Percentage = math.Round(float64(current)*10000/float64(limit)) / 100

	// Integer comparisons keep the band edges exact.
	switch {
	case current*100 >= limit*CriticalPercent:
		out.Level = LevelCritical
	case current*100 >= limit*UrgentPercent:
		out.Level = LevelUrgent
	case current*100 >= limit*WarningPercent:
		out.Level = LevelWarning
	}

	if grandfathered && out.Level.Rank() > LevelWarning.Rank() {
		out.Level = LevelWarning
		out.ShouldNotify = true
		out.Message = fmt.Sprintf("You have used %d of %d included. Your early-customer terms keep everything running.", current, limit)
		return out
	}

	out.ShouldNotify = out.Level != LevelNormal
	switch out.Level {
	case LevelWarning:
		out.Message = fmt.Sprintf("You have used %.0f%% of your monthly allowance (%d/%d).", out.Percentage, current, limit)
	case LevelUrgent:
		out.Message = fmt.Sprintf("You are about to reach your limit (%d/%d). Consider upgrading.", current, limit)
	case LevelCritical:
		out.Message = fmt.Sprintf("You have reached your plan limit (%d/%d). Service continues; upgrade to stay within your plan.", current, limit)
	}
	return out
}

// Policy decides which subscriptions are grandfathered.
type Policy struct {
	// GrandfatherCutoff grandfathers subscriptions created before it. The
	// zero value grandfathers everyone.
	GrandfatherCutoff time.Time
}

// IsGrandfathered reports whether sub predates the cutoff.
func (p Policy) IsGrandfathered(sub models.Subscription) bool {
	if p.GrandfatherCutoff.IsZero() {
		return true
	}
	return sub.CreatedAt.Before(p.GrandfatherCutoff)
}

// Report aggregates every entitlement signal for the dashboard.
type Report struct {
	Plan          plans.Plan `json:"plan"`
	Grandfathered bool       `json:"grandfathered"`
	Scans         Limit      `json:"scans"`
	Restaurants   Limit      `json:"restaurants"`
	Features      []Access   `json:"features"`
	ShouldNotify  bool       `json:"shouldNotify"`
	HighestLevel  Level      `json:"highestLevel"`
}

// Evaluate builds the usage report from a subscription and its counters.
// Limits and features come from the subscription snapshot, not the live
// catalog.
func Evaluate(sub models.Subscription, stats models.UsageStats, grandfathered bool) Report {
	report := Report{
		Plan:          sub.Plan,
		Grandfathered: grandfathered,
		Scans:         SoftLimitStatus(stats.ScansThisMonth, int64(sub.MaxScansPerMonth), grandfathered),
		Restaurants:   SoftLimitStatus(int64(stats.RestaurantCount), int64(sub.MaxRestaurants), grandfathered),
		Features:      make([]Access, 0, len(plans.AllFeatures)),
	}
	for _, feature := range plans.AllFeatures {
		report.Features = append(report.Features, SubscriptionFeatureStatus(sub, feature, grandfathered))
	}
	report.HighestLevel = report.Scans.Level
	if report.Restaurants.Level.Rank() > report.HighestLevel.Rank() {
		report.HighestLevel = report.Restaurants.Level
	}
	report.ShouldNotify = report.Scans.ShouldNotify || report.Restaurants.ShouldNotify
	return report
}

func featureLabel(f plans.Feature) string {
	labels := map[plans.Feature]string{
		plans.FeatureDigitalMenu:       "Digital menu",
		plans.FeatureQRCodes:           "QR codes",
		plans.FeatureBasicAnalytics:    "Basic analytics",
		plans.FeatureTableOrdering:     "Table ordering",
		plans.FeatureReservations:      "Reservations",
		plans.FeatureCustomerFeedback:  "Customer feedback",
		plans.FeatureCustomBranding:    "Custom branding",
		plans.FeatureHomepageBuilder:   "Homepage builder",
		plans.FeatureAdvancedAnalytics: "Advanced analytics",
		plans.FeatureMultiRestaurant:   "Multiple restaurants",
		plans.FeaturePrioritySupport:   "Priority support",
		plans.FeatureAPIAccess:         "API access",
		plans.FeatureCustomDomain:      "Custom domain",
		plans.FeatureDedicatedManager:  "Dedicated manager",
	}
	if label, ok := labels[f]; ok {
		return label
	}
	return string(f)
}
