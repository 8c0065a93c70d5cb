package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/scout-analytics/adsbot/internal/models"
)

// fingerprintPayload is the stable serialization a fingerprint is computed
// over. It deliberately excludes query ID and timestamps so semantically
// identical queries collide and share a cache slot.
type fingerprintPayload struct {
	Subject string                 `json:"subject"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Filters map[string]interface{} `json:"filters,omitempty"`
}

// Fingerprint computes the cache key for a query. encoding/json sorts map
// keys, so equal maps always serialize identically.
func Fingerprint(q models.Query) string {
	subject := q.Text
	if q.TemplateID != "" {
		subject = q.TemplateID
	}
	payload := fingerprintPayload{Subject: subject, Data: q.Data, Filters: q.Filters}
	raw, err := json.Marshal(payload)
	if err != nil {
		// Maps of interface{} holding non-marshalable values are a caller
		// bug; fall back to the subject alone rather than failing the request.
		raw = []byte(subject)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
