package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New returns a ULID string. ULIDs sort lexicographically by creation time,
// so they double as DynamoDB sort keys for newest-first queries.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
