package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerateETag derives a weak validator from a document id and its last update time. extra
// lets collection responses mix in e.g. the item count so deletions change the tag.
func GenerateETag(id primitive.ObjectID, updatedAt time.Time, extra ...string) string {
	h := sha1.New()
	h.Write([]byte(id.Hex()))
	h.Write([]byte(strconv.FormatInt(updatedAt.UnixNano(), 10)))
	for _, e := range extra {
		h.Write([]byte{0})
		h.Write([]byte(e))
	}
	return `W/"` + hex.EncodeToString(h.Sum(nil)) + `"`
}
