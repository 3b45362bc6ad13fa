package utils

import (
	"crypto/md5"
	"fmt"
)

// HashString returns a hex md5 digest, used for response cache keys.
func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}
