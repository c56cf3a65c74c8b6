package store

import (
	"encoding/base64"
	"strings"
)

// Cursors opaquely encode "sortValue|lastID". Decoding failures are treated
// as an absent cursor, matching the forgiving behavior of the original API.

func encodeCursor(value, id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(value + "|" + id))
}

func decodeCursor(cursor string) (value, id string, ok bool) {
	if cursor == "" {
		return "", "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		// Tolerate padded tokens from clients that re-encode.
		raw, err = base64.URLEncoding.DecodeString(cursor)
		if err != nil {
			return "", "", false
		}
	}
	// The id is the segment after the last separator; ids never contain one.
	decoded := string(raw)
	sep := strings.LastIndex(decoded, "|")
	if sep < 0 {
		return "", "", false
	}
	return decoded[:sep], decoded[sep+1:], true
}
