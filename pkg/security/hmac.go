package security

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
)

// SignHMACSHA512 returns the standard Base64 encoding of HMAC-SHA512(secret, data).
func SignHMACSHA512(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// EqualSignatures compares two encoded signatures in constant time.
func EqualSignatures(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
