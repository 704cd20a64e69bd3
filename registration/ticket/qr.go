// registration/ticket/qr.go
package ticket

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QREncoder turns a payload into a displayable artifact. The core treats
// the encoding as opaque; it only persists the returned string.
type QREncoder interface {
	Encode(payload string, size int) (string, error)
}

// PNGEncoder renders payloads as PNG QR codes wrapped in a data URL, so the
// artifact is self-contained and offline-viewable.
type PNGEncoder struct{}

// Encode implements QREncoder.
func (PNGEncoder) Encode(payload string, size int) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR payload: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
