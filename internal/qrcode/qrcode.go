// Package qrcode maps soil-test scheduling references to compact,
// tamper-evident identifiers printed inside QR codes, and verifies
// scanned identifiers back to their originating fields.
//
// The identifier is self-contained: scheme prefix, base32 payload of the
// reference fields, and a truncated HMAC-SHA256 over the payload. No
// server-side registry is needed to verify a code.
package qrcode

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	qr "github.com/skip2/go-qrcode"
)

// Sentinel errors. ErrInvalidRef signals a caller contract violation;
// ErrUnknownIdentifier signals an identifier this service never minted.
var (
	ErrInvalidRef        = errors.New("qrcode: invalid schedule reference")
	ErrUnknownIdentifier = errors.New("qrcode: unknown identifier")
)

// scheme is the versioned identifier prefix. Bump it if the payload
// layout ever changes; old codes then verify as unrecognized-scheme.
const scheme = "AGL1"

// payloadEncoding has no padding so identifiers stay '='-free.
var payloadEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// sigHexLen is the length of the truncated HMAC hex digest. 12 hex chars
// (48 bits) keeps identifiers short while making a forged or mutated code
// pass with probability 2^-48.
const sigHexLen = 12

// Verification failure reasons.
const (
	ReasonMalformed          = "malformed"
	ReasonUnrecognizedScheme = "unrecognized-scheme"
	ReasonTamperCheckFailed  = "tamper-check-failed"
)

// ScheduleRef identifies one confirmed soil-test appointment. It is
// constructed by the scheduling workflow and immutable thereafter.
type ScheduleRef struct {
	ScheduleID    int64  `json:"schedule_id"`
	FarmerID      int64  `json:"farmer_id"`
	CenterID      int64  `json:"center_id"`
	ScheduledDate string `json:"scheduled_date"`
	Timestamp     string `json:"timestamp"`
}

// Verdict is the outcome of verifying a scanned identifier. Valid and
// Ref are set together; Reason is set only on failure.
type Verdict struct {
	Valid  bool         `json:"valid"`
	Ref    *ScheduleRef `json:"ref,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

// Service generates and verifies QR identifiers. All operations are pure
// functions of their input plus the fixed configuration; the service
// holds no mutable state and is safe for concurrent use.
type Service struct {
	secret         []byte
	publicBaseURL  string
	verifyBasePath string
	imageSize      int
}

// NewService creates a QR service. secret keys the HMAC; publicBaseURL
// and verifyBasePath form the verification landing URL; imageSize is the
// rendered PNG edge in pixels.
func NewService(secret, publicBaseURL, verifyBasePath string, imageSize int) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("qrcode: signing secret must not be empty")
	}
	if imageSize <= 0 {
		imageSize = 256
	}
	return &Service{
		secret:         []byte(secret),
		publicBaseURL:  strings.TrimRight(publicBaseURL, "/"),
		verifyBasePath: "/" + strings.Trim(verifyBasePath, "/"),
		imageSize:      imageSize,
	}, nil
}

// ===============================
// GENERATION
// ===============================

// GenerateTextQRCode produces the compact identifier embedded inside the
// QR payload. Deterministic: field-identical refs always yield the same
// identifier. A structurally invalid ref is a precondition failure, not
// a verification outcome.
func (s *Service) GenerateTextQRCode(ref ScheduleRef) (string, error) {
	if err := validateRef(ref); err != nil {
		return "", err
	}

	payload := encodePayload(ref)
	encoded := payloadEncoding.EncodeToString([]byte(payload))
	sig := s.sign(payload)

	return scheme + "-" + encoded + "-" + sig, nil
}

// GenerateSoilTestingURL builds the verification landing-page URL for a
// scheduling reference. Idempotent for identical refs.
func (s *Service) GenerateSoilTestingURL(ref ScheduleRef) (string, error) {
	id, err := s.GenerateTextQRCode(ref)
	if err != nil {
		return "", err
	}
	return s.publicBaseURL + s.verifyBasePath + "/" + id, nil
}

// GenerateQRCodeURL builds the URL of the rendered QR image encoding the
// verification URL. Pure function of the ref.
func (s *Service) GenerateQRCodeURL(ref ScheduleRef) (string, error) {
	id, err := s.GenerateTextQRCode(ref)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/api/v1/soil-tests/qr/%s/image?size=%d", s.publicBaseURL, id, s.imageSize), nil
}

// RenderPNG renders the verification URL for a previously generated
// identifier as a PNG. The identifier is verified first so the endpoint
// never renders codes this service did not mint.
func (s *Service) RenderPNG(identifier string, size int) ([]byte, error) {
	verdict := s.VerifyQRCodeID(identifier)
	if !verdict.Valid {
		return nil, ErrUnknownIdentifier
	}
	if size <= 0 || size > 1024 {
		size = s.imageSize
	}
	verifyURL := s.publicBaseURL + s.verifyBasePath + "/" + identifier
	png, err := qr.Encode(verifyURL, qr.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qrcode: render image: %w", err)
	}
	return png, nil
}

// ===============================
// VERIFICATION
// ===============================

// VerifyQRCodeID checks a scanned identifier and recovers the original
// scheduling reference. It never panics and never returns an error for
// bad input; all failures are negative verdicts with a reason.
func (s *Service) VerifyQRCodeID(identifier string) Verdict {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return Verdict{Valid: false, Reason: ReasonMalformed}
	}

	parts := strings.Split(identifier, "-")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return Verdict{Valid: false, Reason: ReasonMalformed}
	}
	if parts[0] != scheme {
		return Verdict{Valid: false, Reason: ReasonUnrecognizedScheme}
	}

	raw, err := payloadEncoding.DecodeString(parts[1])
	if err != nil {
		return Verdict{Valid: false, Reason: ReasonMalformed}
	}
	payload := string(raw)

	if len(parts[2]) != sigHexLen {
		return Verdict{Valid: false, Reason: ReasonTamperCheckFailed}
	}
	expected := s.sign(payload)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(parts[2])) != 1 {
		return Verdict{Valid: false, Reason: ReasonTamperCheckFailed}
	}

	ref, ok := decodePayload(payload)
	if !ok {
		// Signed but unparseable means a different payload version
		// was minted under the same scheme tag.
		return Verdict{Valid: false, Reason: ReasonMalformed}
	}

	return Verdict{Valid: true, Ref: &ref}
}

// ===============================
// INTERNALS
// ===============================

func validateRef(ref ScheduleRef) error {
	if ref.ScheduleID <= 0 || ref.FarmerID <= 0 || ref.CenterID <= 0 {
		return fmt.Errorf("%w: schedule, farmer, and center IDs must be positive", ErrInvalidRef)
	}
	if ref.ScheduledDate == "" {
		return fmt.Errorf("%w: scheduled date is required", ErrInvalidRef)
	}
	if ref.Timestamp == "" {
		return fmt.Errorf("%w: creation timestamp is required", ErrInvalidRef)
	}
	if strings.ContainsRune(ref.ScheduledDate, '|') || strings.ContainsRune(ref.Timestamp, '|') {
		return fmt.Errorf("%w: fields must not contain '|'", ErrInvalidRef)
	}
	return nil
}

func encodePayload(ref ScheduleRef) string {
	return fmt.Sprintf("1|%d|%d|%d|%s|%s",
		ref.ScheduleID, ref.FarmerID, ref.CenterID, ref.ScheduledDate, ref.Timestamp)
}

func decodePayload(payload string) (ScheduleRef, bool) {
	parts := strings.SplitN(payload, "|", 6)
	if len(parts) != 6 || parts[0] != "1" {
		return ScheduleRef{}, false
	}

	scheduleID, err1 := strconv.ParseInt(parts[1], 10, 64)
	farmerID, err2 := strconv.ParseInt(parts[2], 10, 64)
	centerID, err3 := strconv.ParseInt(parts[3], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return ScheduleRef{}, false
	}
	if scheduleID <= 0 || farmerID <= 0 || centerID <= 0 {
		return ScheduleRef{}, false
	}
	if parts[4] == "" || parts[5] == "" {
		return ScheduleRef{}, false
	}

	return ScheduleRef{
		ScheduleID:    scheduleID,
		FarmerID:      farmerID,
		CenterID:      centerID,
		ScheduledDate: parts[4],
		Timestamp:     parts[5],
	}, true
}

func (s *Service) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))[:sigHexLen]
}
