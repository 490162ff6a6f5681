// Package qrcode builds table menu URLs and renders them as PNG data URIs.
package qrcode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"net/url"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// DefaultSize is the rendered image edge in pixels.
const DefaultSize = 256

const dataURIPrefix = "data:image/png;base64,"

// MenuURL returns {base}/menu/{slug}/{tableNumber}. Path segments are
// escaped so labels with spaces stay scannable.
func MenuURL(baseURL, slug, tableNumber string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return base + "/menu/" + url.PathEscape(slug) + "/" + url.PathEscape(tableNumber)
}

// Payload is the derived QR content for one table.
type Payload struct {
	URL  string
	Data string // PNG data URI.
}

// Generator renders QR payloads for a fixed public base URL.
type Generator struct {
	baseURL string
	size    int
}

// NewGenerator constructs a Generator; size <= 0 uses DefaultSize.
func NewGenerator(baseURL string, size int) *Generator {
	if size <= 0 {
		size = DefaultSize
	}
	return &Generator{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"), size: size}
}

// BaseURL returns the configured public base URL.
func (g *Generator) BaseURL() string { return g.baseURL }

// ForTable derives the URL and image for (slug, tableNumber).
func (g *Generator) ForTable(slug, tableNumber string) (Payload, error) {
	target := MenuURL(g.baseURL, slug, tableNumber)
	data, errRender := RenderDataURI(target, g.size)
	if errRender != nil {
		return Payload{}, errRender
	}
	return Payload{URL: target, Data: data}, nil
}

// RenderDataURI encodes content as a QR code PNG data URI.
func RenderDataURI(content string, size int) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("qrcode: empty content")
	}
	code, errEncode := qr.Encode(content, qr.M, qr.Auto)
	if errEncode != nil {
		return "", fmt.Errorf("qrcode: encode: %w", errEncode)
	}
	scaled, errScale := barcode.Scale(code, size, size)
	if errScale != nil {
		return "", fmt.Errorf("qrcode: scale: %w", errScale)
	}
	var buf bytes.Buffer
	if errPNG := png.Encode(&buf, scaled); errPNG != nil {
		return "", fmt.Errorf("qrcode: png: %w", errPNG)
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURI returns the PNG bytes of a data URI produced by RenderDataURI.
func DecodeDataURI(data string) ([]byte, error) {
	if !strings.HasPrefix(data, dataURIPrefix) {
		return nil, fmt.Errorf("qrcode: not a png data uri")
	}
	raw, errDecode := base64.StdEncoding.DecodeString(strings.TrimPrefix(data, dataURIPrefix))
	if errDecode != nil {
		return nil, fmt.Errorf("qrcode: decode: %w", errDecode)
	}
	return raw, nil
}
