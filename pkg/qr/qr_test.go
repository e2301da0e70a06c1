package qr

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentURL(t *testing.T) {
	assert.Equal(t, "https://vegate.app/pay/1a2b3c4d", PaymentURL("1a2b3c4d", ""))
	assert.Equal(t, "https://example.com/pay/1a2b3c4d", PaymentURL("1a2b3c4d", "https://example.com"))
	assert.Equal(t, "https://example.com/pay/1a2b3c4d", PaymentURL("1a2b3c4d", "https://example.com/"))
}

func TestGenerate(t *testing.T) {
	data, err := Generate("1a2b3c4d", "", 256)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}

func TestDataURL(t *testing.T) {
	url, err := DataURL("1a2b3c4d", "", 0)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)
}
