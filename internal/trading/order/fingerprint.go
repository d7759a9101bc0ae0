package order

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/econicmedia/bot-sub001/internal/types"
)

// fingerprint identifies a submission by what it would do on the exchange.
// It carries no submission time bucket: duplicates are bounded in time by
// the sliding DedupWindow of fingerprintSet instead, so two submissions a
// moment apart never land in different buckets.
func fingerprint(order types.Order) string {
	price, err := order.Price.Take()
	if err != nil {
		price = 0
	}

	parts := []string{
		order.Symbol,
		string(order.Side),
		string(order.Kind),
		strconv.FormatFloat(order.Quantity, 'f', -1, 64),
		strconv.FormatFloat(price, 'f', -1, 64),
		strconv.FormatInt(order.SignalTimestamp.UnixNano(), 10),
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))

	return hex.EncodeToString(sum[:])
}

type fingerprintEntry struct {
	orderID string
	expires time.Time
}

// fingerprintSet remembers submitted fingerprints for a sliding window.
// Not safe for concurrent use; the manager guards it.
type fingerprintSet struct {
	window  time.Duration
	entries map[string]fingerprintEntry
}

func newFingerprintSet(window time.Duration) *fingerprintSet {
	return &fingerprintSet{
		window:  window,
		entries: make(map[string]fingerprintEntry),
	}
}

// claim registers fp for orderID. It returns the id of the order holding a
// live entry for fp, or "" when the claim succeeded.
func (s *fingerprintSet) claim(fp, orderID string, now time.Time) string {
	s.expire(now)

	if entry, ok := s.entries[fp]; ok && entry.orderID != orderID {
		return entry.orderID
	}

	s.entries[fp] = fingerprintEntry{orderID: orderID, expires: now.Add(s.window)}

	return ""
}

// release drops fp if it is still held by orderID.
func (s *fingerprintSet) release(fp, orderID string) {
	if entry, ok := s.entries[fp]; ok && entry.orderID == orderID {
		delete(s.entries, fp)
	}
}

func (s *fingerprintSet) expire(now time.Time) {
	for fp, entry := range s.entries {
		if !now.Before(entry.expires) {
			delete(s.entries, fp)
		}
	}
}
