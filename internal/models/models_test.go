package models

import (
	"errors"
	"testing"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{OrderPending, OrderPreparing, true},
		{OrderPending, OrderCancelled, true},
		{OrderPreparing, OrderServed, true},
		{OrderPending, OrderServed, false},
		{OrderPreparing, OrderCancelled, false},
		{OrderPreparing, OrderPending, false},
		{OrderServed, OrderPending, false},
		{OrderCancelled, OrderPreparing, false},
		{OrderPending, OrderStatus("eaten"), false},
	}
	for _, tc := range cases {
		next, err := tc.from.Transition(tc.to)
		if tc.ok {
			if err != nil || next != tc.to {
				t.Fatalf("%s -> %s: expected ok, got %s (%v)", tc.from, tc.to, next, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s -> %s: expected ErrInvalidTransition, got %v", tc.from, tc.to, err)
		}
		if next != tc.from {
			t.Fatalf("%s -> %s: expected status unchanged, got %s", tc.from, tc.to, next)
		}
	}
	if !OrderServed.Terminal() || !OrderCancelled.Terminal() || OrderPending.Terminal() {
		t.Fatalf("unexpected terminal states")
	}
}

func TestUserRoleDerivation(t *testing.T) {
	cases := []struct {
		user User
		role Role
	}{
		{User{ApprovalStatus: ApprovalPending, Tier: TierAdmin}, RolePending},
		{User{ApprovalStatus: ApprovalPending, Tier: TierSuperAdmin}, RolePending},
		{User{ApprovalStatus: ApprovalRejected, Tier: TierSuperAdmin}, RoleRejected},
		{User{ApprovalStatus: ApprovalApproved, Tier: TierAdmin}, RoleAdmin},
		{User{ApprovalStatus: ApprovalApproved, Tier: TierSuperAdmin}, RoleSuperAdmin},
	}
	for _, tc := range cases {
		if got := tc.user.Role(); got != tc.role {
			t.Fatalf("expected role %s, got %s", tc.role, got)
		}
	}
	rejectedSuper := User{ApprovalStatus: ApprovalRejected, Tier: TierSuperAdmin}
	if rejectedSuper.IsSuperAdmin() || rejectedSuper.CanAccessDashboard() {
		t.Fatalf("rejected super admin must not have super admin access")
	}
}

func TestSlidersScanAcceptsEnvelopeAndLegacy(t *testing.T) {
	var envelope Sliders
	if err := envelope.Scan([]byte(`{"version":1,"items":[{"id":"s1","title":"Welcome","imageUrl":"https://x/y.png","order":1}]}`)); err != nil {
		t.Fatalf("scan envelope: %v", err)
	}
	if len(envelope) != 1 || envelope[0].ID != "s1" || envelope[0].Order != 1 {
		t.Fatalf("unexpected envelope decode: %+v", envelope)
	}

	var legacy Sliders
	if err := legacy.Scan(`[{"id":"s2","title":"Legacy"}]`); err != nil {
		t.Fatalf("scan legacy: %v", err)
	}
	if len(legacy) != 1 || legacy[0].Title != "Legacy" {
		t.Fatalf("unexpected legacy decode: %+v", legacy)
	}

	var future Sliders
	if err := future.Scan(`{"version":9,"items":[]}`); err == nil {
		t.Fatalf("expected error for unsupported envelope version")
	}
}

func TestSlidersValueRoundTrip(t *testing.T) {
	in := Sliders{{Title: "Terrace"}}.Normalize()
	if in[0].ID == "" {
		t.Fatalf("expected generated id")
	}
	raw, err := in.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	var out Sliders
	if errScan := out.Scan(raw); errScan != nil {
		t.Fatalf("scan: %v", errScan)
	}
	if len(out) != 1 || out[0].ID != in[0].ID {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}
}

func TestFeatureFlagsScanLegacyList(t *testing.T) {
	var flags FeatureFlags
	if err := flags.Scan(`["DIGITAL_MENU","QR_CODES"]`); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !flags["DIGITAL_MENU"] || !flags["QR_CODES"] || len(flags) != 2 {
		t.Fatalf("unexpected flags: %+v", flags)
	}
}

func TestOpeningHoursValidate(t *testing.T) {
	ok := OpeningHours{
		"monday": {IsOpen: true, OpenTime: "11:30", CloseTime: "22:00"},
		"sunday": {IsOpen: false},
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid hours, got %v", err)
	}
	badDay := OpeningHours{"funday": {IsOpen: false}}
	if err := badDay.Validate(); err == nil {
		t.Fatalf("expected error for unknown weekday")
	}
	badTime := OpeningHours{"monday": {IsOpen: true, OpenTime: "25:00", CloseTime: "22:00"}}
	if err := badTime.Validate(); err == nil {
		t.Fatalf("expected error for invalid time")
	}
}

func TestHomepageValidate(t *testing.T) {
	home := DefaultHomepage(1)
	home.Testimonials = Testimonials{{ID: "t1", CustomerName: "Ana", Rating: 6}}
	if err := home.Validate(); err == nil {
		t.Fatalf("expected rating validation error")
	}
	home.Testimonials[0].Rating = 5
	home.SocialLinks = SocialLinks{{Platform: "instagram", URL: "not a url", Enabled: true}}
	if err := home.Validate(); err == nil {
		t.Fatalf("expected url validation error")
	}
	home.SocialLinks[0].URL = "https://instagram.com/pizzaroma"
	if err := home.Validate(); err != nil {
		t.Fatalf("expected valid homepage, got %v", err)
	}
}

func TestRestaurantSettingsValidate(t *testing.T) {
	settings := DefaultRestaurantSettings(1)
	if err := settings.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	settings.PrimaryColor = "orange"
	if err := settings.Validate(); err == nil {
		t.Fatalf("expected color validation error")
	}
	settings.PrimaryColor = "#ABC"
	settings.Currency = Currency("GBP")
	if err := settings.Validate(); err == nil {
		t.Fatalf("expected currency validation error")
	}
}

func TestFormatPriceUSD(t *testing.T) {
	if got := FormatPrice(1234.5, CurrencyUSD); got != "$1,234.50" {
		t.Fatalf("expected $1,234.50, got %q", got)
	}
}
