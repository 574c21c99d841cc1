package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/iksnae/practice-reconcile/internal"
)

// RunBackup cross-references snapshot rows of kinds against the live store.
// Each snapshot row is overlaid on its live row: live associations stay
// authoritative, the snapshot contributes the client name, timestamp and
// the associations it recorded. Rows that need nothing are ignored.
func (r *Reconciler) RunBackup(ctx context.Context, kinds []internal.Kind, backup internal.BackupSource) (*Report, error) {
	if backup == nil {
		return nil, errors.New("reconcile: no backup source")
	}
	kinds = orderKinds(kinds)

	idx, sessions, err := r.loadIndex(ctx)
	if err != nil {
		return nil, err
	}

	var items []workItem
	for _, kind := range kinds {
		snapshot, err := backup.ReadSnapshot(kind)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s snapshot: %w", kind, err)
		}
		internal.LogDebug("Read %d %s rows from snapshot", len(snapshot), kind)

		for _, snap := range snapshot {
			if r.Options.Owner != "" && snap.OwnerID != "" && snap.OwnerID != r.Options.Owner {
				continue
			}
			item, ok := r.overlay(ctx, kind, snap)
			if ok {
				items = append(items, item)
			}
		}
	}

	report := newReport(internal.SourceBackup, r.Options)
	report.Kinds = kinds
	r.run(ctx, report, items, idx, sessions)
	return report, nil
}

// overlay builds the work item for one snapshot row. The second return value
// is false when the live row needs no repair.
func (r *Reconciler) overlay(ctx context.Context, kind internal.Kind, snap internal.OrphanRecord) (workItem, bool) {
	snap.Kind = kind
	live, err := r.Store.GetRecord(ctx, kind, snap.ID)
	if errors.Is(err, internal.ErrNotFound) {
		return workItem{rec: snap, pre: &result{
			outcome: outcomeSkipped,
			unresolved: []UnresolvedEntry{{
				RecordID: snap.ID,
				Kind:     kind,
				Field:    "id",
				Name:     snap.ClientNameHint,
				Reason:   "not in live store",
			}},
		}}, true
	}
	if err != nil {
		return workItem{rec: snap, pre: &result{
			outcome: outcomeFailed,
			errs:    []ErrorEntry{{RecordID: snap.ID, Kind: kind, Reason: err.Error()}},
		}}, true
	}

	rec := live
	rec.Source = internal.SourceBackup
	rec.SnapshotClientID = snap.ClientID
	rec.SnapshotSessionID = snap.SessionID
	if snap.ClientNameHint != "" {
		rec.ClientNameHint = snap.ClientNameHint
	}
	if !rec.HasTimestamp() {
		rec.Timestamp = snap.Timestamp
	}

	needs := rec.ClientID == "" ||
		(kind.Linkable() && rec.SessionID == "") ||
		(rec.SnapshotClientID != "" && rec.SnapshotClientID != rec.ClientID)
	return workItem{rec: rec}, needs
}
