package realtime

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// ErrHandshake is the only error the handshake path produces. It is
// deliberately detail-free: an unauthenticated peer learns nothing
// about why it was rejected, which prevents identity probing.
var ErrHandshake = errors.New("handshake rejected")

// DefaultHandshakeWindow bounds timestamp staleness when the config
// does not say otherwise.
const DefaultHandshakeWindow = 30 * time.Second

// Token computes the handshake token for an identity at a millisecond
// timestamp: hex(HMAC-SHA256(key = secret||timestamp, msg = identity)).
// Exposed so tests and trusted token issuers stay in lockstep with
// verification.
func Token(secret, identity string, timestampMillis int64) string {
	key := secret + strconv.FormatInt(timestampMillis, 10)
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(identity))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHandshake checks a connecting client's {identity, timestamp,
// token} triple against the shared secret and the freshness window.
// The timestamp is unix milliseconds, as produced by Date.now() in
// browser clients; the window applies in both directions to tolerate
// clock drift.
func VerifyHandshake(secret, identity, timestamp, token string, window time.Duration, now time.Time) error {
	if identity == "" || timestamp == "" || token == "" {
		return ErrHandshake
	}
	if window <= 0 {
		window = DefaultHandshakeWindow
	}

	millis, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrHandshake
	}

	issued := time.UnixMilli(millis)
	age := now.Sub(issued)
	if age > window || age < -window {
		return ErrHandshake
	}

	expected := Token(secret, identity, millis)
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ErrHandshake
	}
	return nil
}
