// Package configstore serializes a flat property mapping to and from
// the three physical encodings that successive iocage generations left
// behind: the current JSON file, the legacy flat file and ZFS user
// properties.
package configstore

import (
	"sort"

	"jailcfg/pkg/utils"
)

// Store is one physical encoding of a property mapping.
//
// Read never fails: file absence, corruption and parse errors all
// yield an empty mapping, so a first run and a damaged config are
// indistinguishable. That tolerance is deliberate.
type Store interface {
	Exists() bool
	Read() map[string]interface{}
	Write(data map[string]interface{}) error
}

// canonicalize renders every value to its canonical string form and
// returns the keys in sorted order for deterministic output.
func canonicalize(data map[string]interface{}, style utils.StringStyle) ([]string, map[string]string) {
	keys := make([]string, 0, len(data))
	out := make(map[string]string, len(data))
	for key, value := range data {
		keys = append(keys, key)
		out[key] = utils.ToString(value, style)
	}
	sort.Strings(keys)
	return keys, out
}
