package breachstate

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

const prefixLen = 5

// credentialDigest splits the upper-case SHA-1 hex digest of a secret into the
// range prefix sent upstream and the suffix matched locally.
func credentialDigest(secret string) (prefix, suffix string) {
	sum := sha1.Sum([]byte(secret))
	h := strings.ToUpper(hex.EncodeToString(sum[:]))
	return h[:prefixLen], h[prefixLen:]
}

func matchSuffix(rangeResult map[string]int, suffix string) int {
	if n, ok := rangeResult[suffix]; ok {
		return n
	}
	for k, n := range rangeResult {
		if strings.EqualFold(k, suffix) {
			return n
		}
	}
	return 0
}
