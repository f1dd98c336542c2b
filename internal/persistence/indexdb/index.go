// Package indexdb keeps queryable indexes of the audit journal. The journal
// files stay the source of truth; indexes may drop records under load.
package indexdb

import (
	"strings"

	"voxelagent.ai/internal/persistence/audit"
)

// Index receives every audit record after it is journaled.
type Index interface {
	Record(r audit.Record)
	Stats() Stats
	Close() error
}

type Stats struct {
	QueueDepth     int    `json:"queue_depth"`
	QueueCapacity  int    `json:"queue_capacity"`
	WrittenTotal   uint64 `json:"written_total"`
	DropTotal      uint64 `json:"drop_total"`
	FlushFailTotal uint64 `json:"flush_fail_total"`
}

func verbOf(phrase string) string {
	f := strings.Fields(strings.ToLower(phrase))
	if len(f) == 0 {
		return ""
	}
	return f[0]
}
