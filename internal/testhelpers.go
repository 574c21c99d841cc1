package internal

import (
	"time"
)

// CreateTestClient creates a client identity with optional aliases
func CreateTestClient(id, name string, aliases ...string) ClientIdentity {
	return ClientIdentity{
		ID:            id,
		OwnerID:       "o1",
		CanonicalName: name,
		NameVariants:  aliases,
	}
}

// CreateTestOrphan creates a live orphan of kind carrying only a client name hint
func CreateTestOrphan(kind Kind, id, clientName string, ts time.Time) OrphanRecord {
	return OrphanRecord{
		Kind:           kind,
		ID:             id,
		OwnerID:        "o1",
		ClientNameHint: clientName,
		Timestamp:      ts,
		Source:         SourceLive,
	}
}
