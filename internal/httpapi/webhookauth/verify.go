// Package webhookauth verifies the HMAC signatures on inbound webhook
// deliveries. The payment processor signs "<ts>.<body>" and sends the
// timestamp alongside, which gives replay protection; the identity provider
// signs the raw body only.
package webhookauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidTimestamp       = errors.New("invalid timestamp")
	ErrTimestampOutsideWindow = errors.New("timestamp outside allowed window")
	ErrInvalidSignature       = errors.New("invalid signature")
)

// Window bounds how far a signed timestamp may drift from server time.
const Window = 5 * time.Minute

// VerifyTimestamped checks a hex HMAC-SHA256 signature over "<ts>.<body>".
func VerifyTimestamped(secret, timestampHeader, signatureHeader string, body []byte, now time.Time) error {
	tsHeader := strings.TrimSpace(timestampHeader)

	tsInt, err := strconv.ParseInt(tsHeader, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}
	ts := time.Unix(tsInt, 0).UTC()

	// Replay protection.
	now = now.UTC()
	if ts.Before(now.Add(-Window)) || ts.After(now.Add(Window)) {
		return ErrTimestampOutsideWindow
	}

	provided, err := hex.DecodeString(strings.TrimSpace(signatureHeader))
	if err != nil {
		return ErrInvalidSignature
	}

	if !hmac.Equal(provided, digest(secret, signedPayload(tsHeader, body))) {
		return ErrInvalidSignature
	}
	return nil
}

// VerifyRaw checks a hex HMAC-SHA256 signature over the raw body.
func VerifyRaw(secret, signatureHeader string, body []byte) error {
	provided, err := hex.DecodeString(strings.TrimSpace(signatureHeader))
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(provided, digest(secret, body)) {
		return ErrInvalidSignature
	}
	return nil
}

// SignTimestampedHex computes the hex signature for "<ts>.<body>"; used by
// tests and local tooling.
func SignTimestampedHex(secret, timestampHeader string, body []byte) string {
	return hex.EncodeToString(digest(secret, signedPayload(timestampHeader, body)))
}

// SignRawHex computes the hex signature over the raw body.
func SignRawHex(secret string, body []byte) string {
	return hex.EncodeToString(digest(secret, body))
}

func signedPayload(timestampHeader string, body []byte) []byte {
	msg := make([]byte, 0, len(timestampHeader)+1+len(body))
	msg = append(msg, []byte(timestampHeader)...)
	msg = append(msg, '.')
	msg = append(msg, body...)
	return msg
}

func digest(secret string, msg []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(msg)
	return mac.Sum(nil)
}
