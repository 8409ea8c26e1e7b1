package domainerr

import "strings"

// Classify scans an error's message for substrings that indicate a known
// failure class, mirroring the cascade the ingestion pipeline used before
// this engine: DNS/network errors, authentication errors, and missing-file
// errors each get a distinguished kind and a short hint; anything else falls
// through as unknown.
func Classify(err error) (kind string, hint string) {
	if err == nil {
		return "", ""
	}

	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, "no such host", "nodename nor servname", "gaierror", "dial tcp", "connection refused", "network is unreachable", "i/o timeout"):
		return KindTransport, "check hostnames and network"
	case containsAny(msg, "credentials", "authentication", "permission denied", "unauthorized", "access denied"):
		return KindAuthN, "check credentials"
	case containsAny(msg, "no such file", "file not found", "not found"):
		return KindSourceMissing, "verify existence"
	default:
		return KindUnknown, ""
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
