// Package qr renders shareable payment QR codes for bills.
package qr

import (
	"encoding/base64"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultBaseURL is used when no public base URL is configured.
const DefaultBaseURL = "https://vegate.app"

// DefaultSize is the rendered QR edge length in pixels.
const DefaultSize = 512

// PaymentURL builds the shareable payment link for a short bill id.
func PaymentURL(shortID, baseURL string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return strings.TrimSuffix(baseURL, "/") + "/pay/" + shortID
}

// Generate renders the payment link as a PNG. A size of 0 uses DefaultSize.
func Generate(shortID, baseURL string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(PaymentURL(shortID, baseURL), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("generate qr code: %w", err)
	}
	return png, nil
}

// DataURL renders the payment link QR as a base64 PNG data URL, the form
// stored on the mirror row and embedded directly by clients.
func DataURL(shortID, baseURL string, size int) (string, error) {
	png, err := Generate(shortID, baseURL, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
