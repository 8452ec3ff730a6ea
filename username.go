package linkauth

import (
	"crypto/rand"
	"strings"
)

const usernameSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateUsername derives a username from a display name: lowercased,
// stripped of anything outside [a-z0-9], with a short random suffix so two
// users named the same never collide.
func GenerateUsername(name string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(name) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		}
	}
	return b.String() + "_" + randomSuffix(5)
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	rand.Read(buf)
	for i := range buf {
		buf[i] = usernameSuffixAlphabet[int(buf[i])%len(usernameSuffixAlphabet)]
	}
	return string(buf)
}
