// Package ids generates collision-resistant identifiers for uploaded
// file names. KSUIDs embed a timestamp followed by random payload,
// which keeps generated names sortable by upload time.
package ids

import "github.com/segmentio/ksuid"

func New() string {
	return ksuid.New().String()
}
