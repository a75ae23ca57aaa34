package local

import (
	"strconv"

	"github.com/poiesic/winesearch/storage"
)

// Key prefixes for different data types
const (
	wineRecordPrefix = "wine:"
)

// makeWineKey generates a key for a wine record by ID.
// Format: prefix + 8 byte big-endian ID, so iteration follows ID order.
func makeWineKey(id int64) []byte {
	key := make([]byte, 0, len(wineRecordPrefix)+8)
	key = append(key, wineRecordPrefix...)
	return append(key, storage.MarshalID(id)...)
}

// docID is the bleve document ID for a wine.
func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseDocID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
