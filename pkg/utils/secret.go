package utils

import "crypto/subtle"

// SecureEquals compares two secrets in constant time.
func SecureEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
