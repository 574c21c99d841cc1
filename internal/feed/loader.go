package feed

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/iksnae/practice-reconcile/internal"
	"github.com/iksnae/practice-reconcile/internal/transcript"
)

// LoadSources reads notes, recordings, sessions and client names for owner
// concurrently. Any failed read fails the whole load.
func LoadSources(ctx context.Context, store internal.RecordStore, owner string) (Sources, error) {
	var src Sources
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		notes, err := store.ListNotes(ctx, owner)
		if err != nil {
			return fmt.Errorf("failed to load notes: %w", err)
		}
		src.Notes = notes
		return nil
	})

	g.Go(func() error {
		recordings, err := store.ListRecordings(ctx, owner)
		if err != nil {
			return fmt.Errorf("failed to load recordings: %w", err)
		}
		src.Recordings = recordings
		return nil
	})

	g.Go(func() error {
		sessions, err := store.ListSessions(ctx, owner)
		if err != nil {
			return fmt.Errorf("failed to load sessions: %w", err)
		}
		src.Sessions = sessions
		return nil
	})

	g.Go(func() error {
		clients, err := store.GetClients(ctx, owner)
		if err != nil {
			return fmt.Errorf("failed to load clients: %w", err)
		}
		names := make(map[string]string, len(clients))
		for _, c := range clients {
			names[c.ID] = c.CanonicalName
		}
		src.ClientNames = names
		return nil
	})

	if err := g.Wait(); err != nil {
		return Sources{}, err
	}
	return src, nil
}

// Load builds the feed for owner from the store
func Load(ctx context.Context, store internal.RecordStore, owner string, obs internal.Observer) (*Feed, error) {
	src, err := LoadSources(ctx, store, owner)
	if err != nil {
		return nil, err
	}

	internal.LogDebug("Building feed from %d notes, %d recordings, %d sessions",
		len(src.Notes), len(src.Recordings), len(src.Sessions))

	return &Feed{
		Owner:       owner,
		GeneratedAt: internal.Now().UTC(),
		Entries:     Build(src, transcript.Decode, obs),
	}, nil
}
