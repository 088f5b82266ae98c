// file: internal/qrcode/qrcode_test.go
package qrcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService("test-signing-secret", "https://agrilink.example.com", "/api/v1/soil-tests/verify", 256)
	require.NoError(t, err)
	return svc
}

func testRef() ScheduleRef {
	return ScheduleRef{
		ScheduleID:    123,
		FarmerID:      456,
		CenterID:      789,
		ScheduledDate: "2025-01-20",
		Timestamp:     "2025-01-15T10:30:00Z",
	}
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService("", "https://agrilink.example.com", "/verify", 256)
	assert.Error(t, err)
}

func TestGenerateAndVerifyRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ref := testRef()

	id, err := svc.GenerateTextQRCode(ref)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "AGL1-"))

	verdict := svc.VerifyQRCodeID(id)
	require.True(t, verdict.Valid)
	require.NotNil(t, verdict.Ref)
	assert.Equal(t, ref, *verdict.Ref)
	assert.Empty(t, verdict.Reason)
}

func TestGenerateIsDeterministic(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.GenerateTextQRCode(testRef())
	require.NoError(t, err)
	second, err := svc.GenerateTextQRCode(testRef())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateRejectsInvalidRef(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name string
		ref  ScheduleRef
	}{
		{"zero schedule ID", ScheduleRef{ScheduleID: 0, FarmerID: 1, CenterID: 1, ScheduledDate: "2025-01-20", Timestamp: "t"}},
		{"negative farmer ID", ScheduleRef{ScheduleID: 1, FarmerID: -5, CenterID: 1, ScheduledDate: "2025-01-20", Timestamp: "t"}},
		{"missing date", ScheduleRef{ScheduleID: 1, FarmerID: 1, CenterID: 1, Timestamp: "t"}},
		{"missing timestamp", ScheduleRef{ScheduleID: 1, FarmerID: 1, CenterID: 1, ScheduledDate: "2025-01-20"}},
		{"pipe in date", ScheduleRef{ScheduleID: 1, FarmerID: 1, CenterID: 1, ScheduledDate: "2025|01", Timestamp: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GenerateTextQRCode(tt.ref)
			assert.ErrorIs(t, err, ErrInvalidRef)
		})
	}
}

func TestVerifyMalformedInputs(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name       string
		identifier string
		reason     string
	}{
		{"empty string", "", ReasonMalformed},
		{"whitespace only", "   ", ReasonMalformed},
		{"random text", "not a real code", ReasonMalformed},
		{"too few segments", "AGL1-ONLYPAYLOAD", ReasonMalformed},
		{"wrong scheme", "XYZ9-MFZGK-abcdefabcdef", ReasonUnrecognizedScheme},
		{"bad base32 payload", "AGL1-@@!payload@@-abcdefabcdef", ReasonMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := svc.VerifyQRCodeID(tt.identifier)
			assert.False(t, verdict.Valid)
			assert.Nil(t, verdict.Ref)
			assert.Equal(t, tt.reason, verdict.Reason)
		})
	}
}

func TestVerifyNotARealCode(t *testing.T) {
	svc := newTestService(t)

	verdict := svc.VerifyQRCodeID("not-a-real-code")
	assert.False(t, verdict.Valid)
}

func TestVerifyRejectsSingleCharacterMutations(t *testing.T) {
	svc := newTestService(t)

	id, err := svc.GenerateTextQRCode(testRef())
	require.NoError(t, err)

	// Flip each position to a different base32-safe character. Every
	// mutation must fail verification; none may panic.
	for i := 0; i < len(id); i++ {
		mutated := []byte(id)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}
		verdict := svc.VerifyQRCodeID(string(mutated))
		assert.False(t, verdict.Valid, "mutation at position %d must not verify", i)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	minted := newTestService(t)
	other, err := NewService("a-different-secret", "https://agrilink.example.com", "/api/v1/soil-tests/verify", 256)
	require.NoError(t, err)

	id, err := minted.GenerateTextQRCode(testRef())
	require.NoError(t, err)

	verdict := other.VerifyQRCodeID(id)
	assert.False(t, verdict.Valid)
	assert.Equal(t, ReasonTamperCheckFailed, verdict.Reason)
}

func TestGenerateSoilTestingURL(t *testing.T) {
	svc := newTestService(t)

	url, err := svc.GenerateSoilTestingURL(testRef())
	require.NoError(t, err)

	id, err := svc.GenerateTextQRCode(testRef())
	require.NoError(t, err)

	assert.Equal(t, "https://agrilink.example.com/api/v1/soil-tests/verify/"+id, url)

	again, err := svc.GenerateSoilTestingURL(testRef())
	require.NoError(t, err)
	assert.Equal(t, url, again)
}

func TestGenerateQRCodeURL(t *testing.T) {
	svc := newTestService(t)

	url, err := svc.GenerateQRCodeURL(testRef())
	require.NoError(t, err)

	id, err := svc.GenerateTextQRCode(testRef())
	require.NoError(t, err)

	assert.Contains(t, url, "/api/v1/soil-tests/qr/"+id+"/image")
	assert.Contains(t, url, "size=256")
}

func TestRenderPNG(t *testing.T) {
	svc := newTestService(t)

	id, err := svc.GenerateTextQRCode(testRef())
	require.NoError(t, err)

	png, err := svc.RenderPNG(id, 256)
	require.NoError(t, err)
	// PNG magic bytes
	require.True(t, len(png) > 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestRenderPNGRejectsUnknownIdentifier(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.RenderPNG("not-a-real-code", 256)
	assert.True(t, errors.Is(err, ErrUnknownIdentifier))
}
