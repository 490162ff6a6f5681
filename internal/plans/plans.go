// Package plans holds the static subscription catalog.
package plans

import (
	"sort"
	"strings"
)

// Plan is a subscription tier.
type Plan string

const (
	Freemium   Plan = "FREEMIUM"
	Starter    Plan = "STARTER"
	Growth     Plan = "GROWTH"
	Business   Plan = "BUSINESS"
	Enterprise Plan = "ENTERPRISE"
)

// Feature is a gated capability.
type Feature string

const (
	FeatureDigitalMenu       Feature = "DIGITAL_MENU"
	FeatureQRCodes           Feature = "QR_CODES"
	FeatureBasicAnalytics    Feature = "BASIC_ANALYTICS"
	FeatureTableOrdering     Feature = "TABLE_ORDERING"
	FeatureReservations      Feature = "RESERVATIONS"
	FeatureCustomerFeedback  Feature = "CUSTOMER_FEEDBACK"
	FeatureCustomBranding    Feature = "CUSTOM_BRANDING"
	FeatureHomepageBuilder   Feature = "HOMEPAGE_BUILDER"
	FeatureAdvancedAnalytics Feature = "ADVANCED_ANALYTICS"
	FeatureMultiRestaurant   Feature = "MULTI_RESTAURANT"
	FeaturePrioritySupport   Feature = "PRIORITY_SUPPORT"
	FeatureAPIAccess         Feature = "API_ACCESS"
	FeatureCustomDomain      Feature = "CUSTOM_DOMAIN"
	FeatureDedicatedManager  Feature = "DEDICATED_MANAGER"
)

// AllFeatures lists every feature in display order.
var AllFeatures = []Feature{
	FeatureDigitalMenu,
	FeatureQRCodes,
	FeatureBasicAnalytics,
	FeatureTableOrdering,
	FeatureReservations,
	FeatureCustomerFeedback,
	FeatureCustomBranding,
	FeatureHomepageBuilder,
	FeatureAdvancedAnalytics,
	FeatureMultiRestaurant,
	FeaturePrioritySupport,
	FeatureAPIAccess,
	FeatureCustomDomain,
	FeatureDedicatedManager,
}

// Detail is the catalog entry for a plan.
type Detail struct {
	Plan             Plan
	Name             string
	Price            float64 // Monthly price in EUR.
	MaxRestaurants   int
	MaxScansPerMonth int
	Features         []Feature
	Highlights       []string
}

var (
	freemiumFeatures   = []Feature{FeatureDigitalMenu, FeatureQRCodes}
	starterFeatures    = append(clone(freemiumFeatures), FeatureBasicAnalytics, FeatureTableOrdering)
	growthFeatures     = append(clone(starterFeatures), FeatureReservations, FeatureCustomerFeedback, FeatureCustomBranding)
	businessFeatures   = append(clone(growthFeatures), FeatureHomepageBuilder, FeatureAdvancedAnalytics, FeatureMultiRestaurant, FeaturePrioritySupport)
	enterpriseFeatures = append(clone(businessFeatures), FeatureAPIAccess, FeatureCustomDomain, FeatureDedicatedManager)
)

// Details is the catalog. Higher tiers carry a superset of lower tiers'
// features and limits that are never smaller.
var Details = map[Plan]Detail{
	Freemium: {
		Plan:             Freemium,
		Name:             "Freemium",
		Price:            0,
		MaxRestaurants:   1,
		MaxScansPerMonth: 50,
		Features:         freemiumFeatures,
		Highlights:       []string{"Digital menu", "QR codes for every table", "50 scans per month"},
	},
	Starter: {
		Plan:             Starter,
		Name:             "Starter",
		Price:            19,
		MaxRestaurants:   1,
		MaxScansPerMonth: 1000,
		Features:         starterFeatures,
		Highlights:       []string{"Table ordering", "Basic analytics", "1,000 scans per month"},
	},
	Growth: {
		Plan:             Growth,
		Name:             "Growth",
		Price:            49,
		MaxRestaurants:   2,
		MaxScansPerMonth: 5000,
		Features:         growthFeatures,
		Highlights:       []string{"Reservations", "Customer feedback", "Custom branding"},
	},
	Business: {
		Plan:             Business,
		Name:             "Business",
		Price:            99,
		MaxRestaurants:   5,
		MaxScansPerMonth: 20000,
		Features:         businessFeatures,
		Highlights:       []string{"Homepage builder", "Advanced analytics", "Up to 5 restaurants"},
	},
	Enterprise: {
		Plan:             Enterprise,
		Name:             "Enterprise",
		Price:            249,
		MaxRestaurants:   50,
		MaxScansPerMonth: 250000,
		Features:         enterpriseFeatures,
		Highlights:       []string{"API access", "Custom domain", "Dedicated account manager"},
	},
}

func clone(in []Feature) []Feature {
	out := make([]Feature, len(in))
	copy(out, in)
	return out
}

// Lookup returns the catalog entry for p.
func Lookup(p Plan) (Detail, bool) {
	d, ok := Details[p]
	return d, ok
}

// Parse normalizes a plan name.
func Parse(raw string) (Plan, bool) {
	p := Plan(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := Details[p]
	return p, ok
}

// Ordered returns catalog entries by ascending price.
func Ordered() []Detail {
	out := make([]Detail, 0, len(Details))
	for _, d := range Details {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price == out[j].Price {
			return out[i].MaxScansPerMonth < out[j].MaxScansPerMonth
		}
		return out[i].Price < out[j].Price
	})
	return out
}

// Has reports whether the plan includes feature.
func (d Detail) Has(feature Feature) bool {
	for _, f := range d.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// FeatureSnapshot returns every known feature mapped to whether the plan has it.
func (d Detail) FeatureSnapshot() map[string]bool {
	out := make(map[string]bool, len(AllFeatures))
	for _, f := range AllFeatures {
		out[string(f)] = d.Has(f)
	}
	return out
}

// Higher returns the tiers strictly above p, cheapest first.
func Higher(p Plan) []Detail {
	current, ok := Details[p]
	if !ok {
		return nil
	}
	var out []Detail
	for _, d := range Ordered() {
		if d.Price > current.Price {
			out = append(out, d)
		}
	}
	return out
}
