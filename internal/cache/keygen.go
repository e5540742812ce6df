package cache

import (
	"crypto/md5"
	"fmt"
	"strings"
)

var unsafeChars = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"#", "_",
	"&", "_",
	"=", "_",
	" ", "_",
)

// KeyFor turns a provider id (usually a host name) into a file name
func KeyFor(id string) string {
	key := unsafeChars.Replace(id)

	// For very long keys, use hash to avoid filesystem limits
	if len(key) > 200 {
		return fmt.Sprintf("hash_%x.json", md5.Sum([]byte(id)))
	}
	if key == "" || key == "." || key == ".." {
		key = "_" + key
	}
	return key + ".json"
}
