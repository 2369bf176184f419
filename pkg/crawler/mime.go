package crawler

import "github.com/gabriel-vasile/mimetype"

// mimeAccepted applies the configured MIME allow-list to a payload. An
// empty list accepts everything. Payloads the detector cannot identify
// beyond its application/octet-stream fallback pass fail-open.
func mimeAccepted(allowed []string, payload []byte) bool {
	if len(allowed) == 0 {
		return true
	}
	detected := mimetype.Detect(payload)
	if detected.Is("application/octet-stream") {
		return true
	}
	for _, m := range allowed {
		if detected.Is(m) {
			return true
		}
	}
	return false
}
