package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/iksnae/practice-reconcile/internal"
	"github.com/iksnae/practice-reconcile/internal/transcript"
)

// CanonicalizeTranscripts rewrites every recording transcript in the owner
// scope into the canonical object format. Transcripts already in that form,
// and empty ones, are skipped, so a second run changes nothing.
func (r *Reconciler) CanonicalizeTranscripts(ctx context.Context) (*Report, error) {
	recordings, err := r.Store.ListRecordings(ctx, r.Options.Owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load recordings: %w", err)
	}

	obs := r.Observer
	if obs == nil {
		obs = internal.NopObserver
	}

	report := newReport(internal.SourceLive, r.Options)
	report.RunID = uuid.NewString()
	report.Kinds = []internal.Kind{internal.KindRecordings}

	seen := make(map[string]bool, len(recordings))
	for _, rec := range recordings {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		report.Total++

		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		canonical, changed, err := transcript.Canonical(rec.Transcript)
		if err != nil {
			report.FailedCount++
			report.Errors = append(report.Errors, ErrorEntry{RecordID: rec.ID, Kind: internal.KindRecordings, Reason: err.Error()})
			continue
		}
		if !changed {
			report.SkippedCount++
			continue
		}

		if !r.Options.DryRun {
			if err := r.Store.UpdateField(ctx, internal.KindRecordings, rec.ID, internal.FieldTranscript, canonical); err != nil {
				ev := internal.Event{Type: internal.EventWriteFailed, Kind: internal.KindRecordings, RecordID: rec.ID, Detail: err.Error()}
				obs.Observe(ev)
				report.Events = append(report.Events, ev)
				report.FailedCount++
				report.Errors = append(report.Errors, ErrorEntry{RecordID: rec.ID, Kind: internal.KindRecordings, Reason: err.Error()})
				continue
			}
		}

		report.FixedCount++
		report.Changes = append(report.Changes, Change{
			RecordID: rec.ID,
			Kind:     internal.KindRecordings,
			Field:    internal.FieldTranscript,
			Value:    canonical,
			Strategy: string(transcript.FormatObject),
		})
	}

	report.FinishedAt = internal.Now().UTC()
	internal.LogInfo("Transcript normalization %s: %s", report.RunID, report.Summary())
	return report, nil
}
