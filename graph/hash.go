package graph

import (
	"encoding/json"

	"github.com/minio/highwayhash"
)

var key = []byte("0123456789ABCDEF0123456789ABCDEF")

// Hash returns a stable 64-bit fingerprint of the given bytes.
func Hash(data []byte) (uint64, error) {
	hash, err := highwayhash.New64(key)
	if err != nil {
		return 0, err
	}
	_, err = hash.Write(data)
	return hash.Sum64(), err
}

// Fingerprint returns a stable fingerprint of a workflow fragment, used to
// detect whether a cached fragment actually changed.
func Fingerprint(w Workflow) (uint64, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return 0, err
	}
	return Hash(data)
}
