package fsapi

import (
	"context"
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // G501: payload fingerprint only, authenticity comes from the HMAC
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL is the signature lifetime used when none is configured.
const DefaultTTL = 300 * time.Second

// Fingerprint returns the digest of payload under alg. An unknown algorithm
// falls back to MD5, the digest existing clients use.
func Fingerprint(alg FingerprintAlgorithm, payload []byte) []byte {
	if alg == FingerprintSHA256 {
		sum := sha256.Sum256(payload)
		return sum[:]
	}
	sum := md5.Sum(payload) //nolint:gosec // see import
	return sum[:]
}

// FingerprintBase64 returns the standard base64 encoding of the payload digest.
func FingerprintBase64(alg FingerprintAlgorithm, payload []byte) string {
	return base64.StdEncoding.EncodeToString(Fingerprint(alg, payload))
}

// SignedString is the exact text authenticated by Sign.
func SignedString(user, timestamp, fingerprintB64 string) string {
	return user + timestamp + fingerprintB64
}

// Sign computes base64(HMAC-SHA256(key, user + timestamp + fingerprintB64)).
//
// It fails with ErrInvalidKey when key is empty and with ErrInvalidInput
// when user or timestamp is empty.
func Sign(user, timestamp, fingerprintB64, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("sign: %w", ErrInvalidKey)
	}
	if user == "" {
		return "", fmt.Errorf("sign: empty user: %w", ErrInvalidInput)
	}
	if timestamp == "" {
		return "", fmt.Errorf("sign: empty timestamp: %w", ErrInvalidInput)
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(SignedString(user, timestamp, fingerprintB64)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// SignRequest fingerprints the request payload and signs it with key.
// The Signature field of req is ignored.
func SignRequest(alg FingerprintAlgorithm, req AuthRequest, key string) (string, error) {
	return Sign(req.User, req.Timestamp, FingerprintBase64(alg, []byte(req.Payload)), key)
}

// ValidatorConfig configures a RequestValidator.
type ValidatorConfig struct {
	// TTL is the maximum distance between the request timestamp and the
	// server clock, in either direction. Zero or negative disables the
	// freshness check.
	TTL         time.Duration
	Fingerprint FingerprintAlgorithm
}

// ValidatorOption customises a RequestValidator.
type ValidatorOption func(*RequestValidator)

// WithClock replaces the clock used for freshness checks.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *RequestValidator) {
		v.now = now
	}
}

// RequestValidator verifies signed requests against a SecretStore.
// It holds no per-request state and is safe for concurrent use.
type RequestValidator struct {
	store       SecretStore
	ttl         time.Duration
	fingerprint FingerprintAlgorithm
	now         func() time.Time
	// decoy is signed with when the user is unknown so that both paths do
	// the same work.
	decoy string
}

// NewRequestValidator creates a validator. An empty fingerprint algorithm
// selects FingerprintMD5.
func NewRequestValidator(store SecretStore, cfg ValidatorConfig, opts ...ValidatorOption) (*RequestValidator, error) {
	if store == nil {
		return nil, errors.New("new request validator: secret store is required")
	}

	alg := cfg.Fingerprint
	if alg == "" {
		alg = FingerprintMD5
	}
	if !alg.IsValid() {
		return nil, fmt.Errorf("new request validator: invalid fingerprint algorithm: %s", alg)
	}

	decoy := make([]byte, 32)
	if _, err := rand.Read(decoy); err != nil {
		return nil, fmt.Errorf("new request validator: decoy key: %w", err)
	}

	v := &RequestValidator{
		store:       store,
		ttl:         cfg.TTL,
		fingerprint: alg,
		now:         time.Now,
		decoy:       base64.StdEncoding.EncodeToString(decoy),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// TTL returns the configured freshness window. Zero or negative means no expiry.
func (v *RequestValidator) TTL() time.Duration {
	return v.ttl
}

// Validate checks the request signature and freshness.
//
// The checks run in this order:
//  1. The user's secret key is resolved (ErrUnknownUser)
//  2. The expected MAC is computed over the payload fingerprint
//  3. The supplied signature is compared in constant time (ErrSignatureMismatch)
//  4. The timestamp is parsed (ErrMalformedTimestamp) and checked against the TTL (ErrExpired)
//
// Timestamp problems are only reported for correctly signed requests, so a
// forger learns nothing about the accepted time window.
//
// Every returned reason wraps ErrUnauthorized. Callers must not forward the
// specific reason to the client; use ReasonCode for audit records instead.
func (v *RequestValidator) Validate(ctx context.Context, req AuthRequest) error {
	key, lookupErr := v.store.Lookup(ctx, req.User)
	known := lookupErr == nil
	if lookupErr != nil && !errors.Is(lookupErr, ErrUnknownUser) {
		return fmt.Errorf("validate: lookup key: %w", lookupErr)
	}
	if !known {
		key = v.decoy
	}

	expected, err := SignRequest(v.fingerprint, req, key)
	if err != nil {
		return fmt.Errorf("validate: %w: %w", err, ErrUnauthorized)
	}

	match := hmac.Equal([]byte(expected), []byte(req.Signature))

	if !known {
		return fmt.Errorf("validate: %w: %w", ErrUnknownUser, ErrUnauthorized)
	}
	if !match {
		return fmt.Errorf("validate: %w: %w", ErrSignatureMismatch, ErrUnauthorized)
	}

	ts, err := ParseTimestamp(req.Timestamp)
	if err != nil {
		return fmt.Errorf("validate: %w: %w", err, ErrUnauthorized)
	}

	// now.Sub(ts) saturates for distant timestamps, so compare the bounds.
	if v.ttl > 0 {
		now := v.now()
		if ts.Before(now.Add(-v.ttl)) || ts.After(now.Add(v.ttl)) {
			return fmt.Errorf("validate: %w: %w", ErrExpired, ErrUnauthorized)
		}
	}

	return nil
}

// ParseTimestamp parses Unix epoch seconds, with an optional decimal
// fraction of up to nine digits ("1700000000" or "1700000000.25").
// Signs, exponents and whitespace are rejected.
func ParseTimestamp(s string) (time.Time, error) {
	secPart, fracPart, hasFrac := strings.Cut(s, ".")
	if !isDigits(secPart) || (hasFrac && (!isDigits(fracPart) || len(fracPart) > 9)) {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, ErrMalformedTimestamp)
	}

	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, ErrMalformedTimestamp)
	}

	var nsec int64
	if hasFrac {
		padded := fracPart + strings.Repeat("0", 9-len(fracPart))
		nsec, err = strconv.ParseInt(padded, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, ErrMalformedTimestamp)
		}
	}

	return time.Unix(sec, nsec), nil
}

// FormatTimestamp renders t the way ParseTimestamp reads it, in whole seconds.
func FormatTimestamp(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
