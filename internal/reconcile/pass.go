// Package reconcile repairs orphaned sessions, notes and recordings by
// filling their missing client and session associations.
//
// Writes are single-field and fill-only: a present association is never
// replaced unless Force is set, so concurrent runs against the same store
// converge and re-running a pass is a no-op.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/iksnae/practice-reconcile/internal"
	"github.com/iksnae/practice-reconcile/internal/match"
)

// Options control a reconciliation run
type Options struct {
	DryRun  bool   // plan changes without writing
	Force   bool   // replace present associations that disagree
	Workers int    // concurrent records, DefaultWorkers when <= 0
	Owner   string // tenant scope, empty for all owners
}

// Reconciler runs reconciliation passes against a record store
type Reconciler struct {
	Store    internal.RecordStore
	Options  Options
	Observer internal.Observer
}

// New creates a Reconciler. A nil observer discards events.
func New(store internal.RecordStore, opts Options, obs internal.Observer) *Reconciler {
	if obs == nil {
		obs = internal.NopObserver
	}
	return &Reconciler{Store: store, Options: opts, Observer: obs}
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeFixed
	outcomeFailed
	outcomeCancelled
)

// result is the outcome of one record, folded into the report in input order
type result struct {
	outcome    outcome
	changes    []Change
	unresolved []UnresolvedEntry
	errs       []ErrorEntry
	events     []internal.Event
}

func (res *result) emit(t internal.EventType, rec internal.OrphanRecord, format string, args ...any) {
	res.events = append(res.events, internal.Event{
		Type:     t,
		Kind:     rec.Kind,
		RecordID: rec.ID,
		Detail:   fmt.Sprintf(format, args...),
	})
}

// workItem is a record to process, or a record whose outcome was already
// decided while it was loaded
type workItem struct {
	rec internal.OrphanRecord
	pre *result
}

// Run reconciles orphans against idx, linking notes and recordings to
// sessions. Records are processed by kind (sessions, then notes, then
// recordings) so session repairs are visible to later links; the report
// lists them in input order. Cancelling ctx stops scheduling new records
// and yields a partial report.
func (r *Reconciler) Run(ctx context.Context, orphans []internal.OrphanRecord, idx *match.Index, sessions []internal.SessionOccurrence) (*Report, error) {
	if idx == nil {
		return nil, errors.New("reconcile: nil identity index")
	}

	source := internal.SourceLive
	items := make([]workItem, 0, len(orphans))
	for _, rec := range orphans {
		if rec.Source == internal.SourceBackup {
			source = internal.SourceBackup
		}
		items = append(items, workItem{rec: rec})
	}

	report := newReport(source, r.Options)
	report.Kinds = stageKinds(items)
	r.run(ctx, report, items, idx, sessions)
	return report, nil
}

// RunLive loads clients, sessions and orphans of kinds from the store and
// reconciles them. Failing to load any of them aborts the run.
func (r *Reconciler) RunLive(ctx context.Context, kinds []internal.Kind) (*Report, error) {
	kinds = orderKinds(kinds)

	idx, sessions, err := r.loadIndex(ctx)
	if err != nil {
		return nil, err
	}

	var items []workItem
	for _, kind := range kinds {
		orphans, err := r.Store.GetOrphans(ctx, kind, r.Options.Owner)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s orphans: %w", kind, err)
		}
		internal.LogDebug("Loaded %d orphaned %s", len(orphans), kind)
		for _, rec := range orphans {
			items = append(items, workItem{rec: rec})
		}
	}

	report := newReport(internal.SourceLive, r.Options)
	report.Kinds = kinds
	r.run(ctx, report, items, idx, sessions)
	return report, nil
}

func (r *Reconciler) loadIndex(ctx context.Context) (*match.Index, []internal.SessionOccurrence, error) {
	clients, err := r.Store.GetClients(ctx, r.Options.Owner)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load clients: %w", err)
	}
	sessions, err := r.Store.GetSessions(ctx, r.Options.Owner)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	internal.LogDebug("Indexing %d clients, %d sessions", len(clients), len(sessions))
	return match.BuildIndex(clients), sessions, nil
}

func (r *Reconciler) run(ctx context.Context, report *Report, items []workItem, idx *match.Index, sessions []internal.SessionOccurrence) {
	obs := r.Observer
	if obs == nil {
		obs = internal.NopObserver
	}
	workers := r.Options.Workers
	if workers <= 0 {
		workers = internal.DefaultWorkers
	}

	report.RunID = uuid.NewString()
	report.Total = len(items)
	report.IndexFingerprint = idx.Fingerprint()
	report.ClientCount = idx.Clients()
	report.Collisions = idx.Collisions()
	for _, c := range report.Collisions {
		ev := internal.Event{
			Type:     internal.EventIndexCollision,
			RecordID: c.DroppedID,
			Detail:   fmt.Sprintf("%q kept by %s", c.Key, c.KeptID),
		}
		obs.Observe(ev)
		report.Events = append(report.Events, ev)
	}

	book := newSessionBook(sessions)
	results := make([]result, len(items))
	scheduled := make([]bool, len(items))

stages:
	for _, kind := range stageKinds(items) {
		g := new(errgroup.Group)
		g.SetLimit(workers)
		for i, it := range items {
			if it.rec.Kind != kind {
				continue
			}
			if ctx.Err() != nil {
				_ = g.Wait()
				break stages
			}
			scheduled[i] = true
			if it.pre != nil {
				results[i] = *it.pre
				continue
			}
			i, it := i, it
			g.Go(func() error {
				results[i] = r.process(ctx, it.rec, idx, book)
				return nil
			})
		}
		_ = g.Wait()
	}

	for i := range items {
		res := results[i]
		if !scheduled[i] || res.outcome == outcomeCancelled {
			report.Cancelled = true
			continue
		}
		for _, ev := range res.events {
			obs.Observe(ev)
		}
		report.Events = append(report.Events, res.events...)
		report.Changes = append(report.Changes, res.changes...)
		report.Unresolved = append(report.Unresolved, res.unresolved...)
		report.Errors = append(report.Errors, res.errs...)

		switch res.outcome {
		case outcomeFixed:
			report.FixedCount++
		case outcomeFailed:
			report.FailedCount++
		default:
			report.SkippedCount++
		}
	}

	report.FinishedAt = internal.Now().UTC()
	internal.LogInfo("Reconciliation %s: %s", report.RunID, report.Summary())
}

// process resolves and repairs one record. It never returns an error: every
// failure becomes part of the result.
func (r *Reconciler) process(ctx context.Context, rec internal.OrphanRecord, idx *match.Index, book *sessionBook) result {
	var res result
	if ctx.Err() != nil {
		res.outcome = outcomeCancelled
		return res
	}

	// Client association
	var target, strategy string
	resolution := match.ResolveDetailed(rec.ClientNameHint, idx)
	switch {
	case resolution.Found():
		target, strategy = resolution.ClientID, string(resolution.Strategy)
	case rec.SnapshotClientID != "" && idx.Name(rec.SnapshotClientID) != "":
		target, strategy = rec.SnapshotClientID, "snapshot"
	}
	if target != "" {
		res.emit(internal.EventResolved, rec, "%q -> %s (%s)", rec.ClientNameHint, target, strategy)
	}

	var writes []Change
	clientID := rec.ClientID
	switch {
	case target == "" && rec.ClientID == "":
		evType := internal.EventUnresolvedName
		if resolution.Ambiguous() {
			evType = internal.EventAmbiguousName
		}
		res.emit(evType, rec, "%s", resolution.Reason)
		res.unresolved = append(res.unresolved, UnresolvedEntry{
			RecordID:   rec.ID,
			Kind:       rec.Kind,
			Field:      internal.FieldClientID,
			Name:       rec.ClientNameHint,
			Reason:     resolution.Reason,
			Candidates: resolution.Candidates,
		})
		res.outcome = outcomeSkipped
		return res
	case target == "" || target == rec.ClientID:
		// keep the live association
	case rec.ClientID == "":
		writes = append(writes, Change{Field: internal.FieldClientID, Value: target, Strategy: strategy})
		clientID = target
	case rec.Source != internal.SourceBackup:
		// a live name hint is only the denormalized client_name
	case r.Options.Force:
		writes = append(writes, Change{Field: internal.FieldClientID, Value: target, Previous: rec.ClientID, Strategy: strategy})
		clientID = target
	default:
		reason := fmt.Sprintf("conflict: live client %s, resolved %s", rec.ClientID, target)
		res.emit(internal.EventConflict, rec, "%s", reason)
		res.unresolved = append(res.unresolved, UnresolvedEntry{
			RecordID: rec.ID,
			Kind:     rec.Kind,
			Field:    internal.FieldClientID,
			Name:     rec.ClientNameHint,
			Reason:   reason,
		})
	}

	// Session association
	if rec.Kind.Linkable() && clientID != "" && (rec.SessionID == "" || r.Options.Force) {
		sessionID, how := r.linkSession(rec, clientID, book)
		switch {
		case sessionID == "" && rec.SessionID == "":
			reason := "no session within link window"
			if !rec.HasTimestamp() {
				reason = "record has no timestamp"
			}
			res.emit(internal.EventUnresolvedSession, rec, "%s", reason)
			res.unresolved = append(res.unresolved, UnresolvedEntry{
				RecordID: rec.ID,
				Kind:     rec.Kind,
				Field:    internal.FieldSessionID,
				Name:     rec.ClientNameHint,
				Reason:   reason,
			})
		case sessionID == "" || sessionID == rec.SessionID:
		case rec.SessionID == "":
			writes = append(writes, Change{Field: internal.FieldSessionID, Value: sessionID, Strategy: how})
		default:
			writes = append(writes, Change{Field: internal.FieldSessionID, Value: sessionID, Previous: rec.SessionID, Strategy: how})
		}
	}

	applied := 0
	for _, ch := range writes {
		ch.RecordID, ch.Kind = rec.ID, rec.Kind

		changed := true
		if !r.Options.DryRun {
			var err error
			if ch.Previous != "" {
				err = r.Store.UpdateField(ctx, rec.Kind, rec.ID, ch.Field, ch.Value)
			} else {
				changed, err = r.Store.FillField(ctx, rec.Kind, rec.ID, ch.Field, ch.Value)
			}
			if err != nil {
				if ctx.Err() != nil && applied == 0 {
					res.outcome = outcomeCancelled
					return res
				}
				wrapped := &internal.ReconcileError{Kind: rec.Kind, RecordID: rec.ID, Err: err}
				res.emit(internal.EventWriteFailed, rec, "%s: %v", ch.Field, err)
				res.errs = append(res.errs, ErrorEntry{RecordID: rec.ID, Kind: rec.Kind, Reason: wrapped.Error()})
				break
			}
		}
		if !changed {
			res.emit(internal.EventLinked, rec, "%s already set by another writer", ch.Field)
			continue
		}

		applied++
		res.changes = append(res.changes, ch)
		res.emit(internal.EventLinked, rec, "%s = %s", ch.Field, ch.Value)
		if rec.Kind == internal.KindSessions && ch.Field == internal.FieldClientID {
			book.assign(rec, ch.Value)
		}
	}

	switch {
	case applied > 0:
		res.outcome = outcomeFixed
	case len(res.errs) > 0:
		res.outcome = outcomeFailed
	default:
		res.outcome = outcomeSkipped
	}
	return res
}

// linkSession prefers the session recorded in a backup snapshot when it
// belongs to the client, then falls back to the temporal linker
func (r *Reconciler) linkSession(rec internal.OrphanRecord, clientID string, book *sessionBook) (string, string) {
	if rec.SnapshotSessionID != "" {
		if s, ok := book.get(rec.SnapshotSessionID); ok && s.ClientID == clientID {
			return s.ID, "snapshot"
		}
	}
	if !rec.HasTimestamp() {
		return "", ""
	}
	if id, ok := match.LinkSession(clientID, rec.Timestamp, book.forClient(clientID)); ok {
		return id, "temporal"
	}
	return "", ""
}

// orderKinds de-duplicates kinds into processing order, all kinds when empty
func orderKinds(kinds []internal.Kind) []internal.Kind {
	if len(kinds) == 0 {
		return append([]internal.Kind(nil), internal.AllKinds...)
	}
	want := make(map[internal.Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var out []internal.Kind
	for _, k := range internal.AllKinds {
		if want[k] {
			out = append(out, k)
		}
	}
	return out
}

// stageKinds returns the kinds present in items in processing order
func stageKinds(items []workItem) []internal.Kind {
	present := make(map[internal.Kind]bool)
	var extra []internal.Kind
	for _, it := range items {
		k := it.rec.Kind
		if present[k] {
			continue
		}
		present[k] = true
		if _, err := internal.ParseKind(string(k)); err != nil {
			extra = append(extra, k)
		}
	}

	var out []internal.Kind
	for _, k := range internal.AllKinds {
		if present[k] {
			out = append(out, k)
		}
	}
	return append(out, extra...)
}
