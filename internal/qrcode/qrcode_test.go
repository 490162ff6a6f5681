package qrcode

import (
	"bytes"
	"image/png"
	"testing"
)

func TestMenuURL(t *testing.T) {
	if got := MenuURL("https://menuqr.app/", "bistrot", "A1"); got != "https://menuqr.app/menu/bistrot/A1" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := MenuURL("https://menuqr.app", "bistrot", "Terrace 2"); got != "https://menuqr.app/menu/bistrot/Terrace%202" {
		t.Fatalf("unexpected escaped url %q", got)
	}
}

func TestForTableRendersDecodablePNG(t *testing.T) {
	gen := NewGenerator("https://menuqr.app", 128)
	payload, err := gen.ForTable("bistrot", "A1")
	if err != nil {
		t.Fatalf("ForTable: %v", err)
	}
	if payload.URL != "https://menuqr.app/menu/bistrot/A1" {
		t.Fatalf("unexpected url %q", payload.URL)
	}
	raw, err := DecodeDataURI(payload.Data)
	if err != nil {
		t.Fatalf("decode data uri: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != 128 || img.Bounds().Dy() != 128 {
		t.Fatalf("expected 128x128, got %v", img.Bounds())
	}
}

func TestForTableIsDeterministic(t *testing.T) {
	gen := NewGenerator("https://menuqr.app", 0)
	a, errA := gen.ForTable("bistrot", "A2")
	b, errB := gen.ForTable("bistrot", "A2")
	if errA != nil || errB != nil {
		t.Fatalf("render: %v %v", errA, errB)
	}
	if a.Data != b.Data {
		t.Fatalf("expected identical payloads for the same table")
	}
	c, errC := gen.ForTable("bistrot", "A3")
	if errC != nil {
		t.Fatalf("render: %v", errC)
	}
	if c.Data == a.Data {
		t.Fatalf("expected different payloads for different tables")
	}
}

func TestRenderDataURIRejectsEmpty(t *testing.T) {
	if _, err := RenderDataURI("  ", 64); err == nil {
		t.Fatalf("expected error for empty content")
	}
}
