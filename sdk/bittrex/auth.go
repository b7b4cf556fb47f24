package bittrex

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"strings"
)

// Sign is the Authenticate signature: upper-case hex HMAC-SHA512 of the
// millisecond timestamp followed by the random content.
func Sign(secret string, timestamp int64, randomContent string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10) + randomContent))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}
