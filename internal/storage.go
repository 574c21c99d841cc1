package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// RecordStore is the keyed record store the reconciler and feed read and
// write. An empty owner means "all owners".
type RecordStore interface {
	GetClients(ctx context.Context, owner string) ([]ClientIdentity, error)
	GetOrphans(ctx context.Context, kind Kind, owner string) ([]OrphanRecord, error)
	GetRecord(ctx context.Context, kind Kind, id string) (OrphanRecord, error)
	GetSessions(ctx context.Context, owner string) ([]SessionOccurrence, error)
	// FillField sets field only when it is currently NULL or empty and
	// reports whether the row changed.
	FillField(ctx context.Context, kind Kind, id, field, value string) (bool, error)
	// UpdateField sets field unconditionally.
	UpdateField(ctx context.Context, kind Kind, id, field, value string) error
	Upsert(ctx context.Context, kind Kind, records []OrphanRecord) error
	ListNotes(ctx context.Context, owner string) ([]NoteRow, error)
	ListRecordings(ctx context.Context, owner string) ([]RecordingRow, error)
	ListSessions(ctx context.Context, owner string) ([]SessionRow, error)
}

// tableSpec maps a Kind onto its table layout
type tableSpec struct {
	table    string
	timeCol  string
	bodyCol  string
	linkable bool
	writable map[string]bool
}

var tableSpecs = map[Kind]tableSpec{
	KindSessions: {
		table:    "sessions",
		timeCol:  "starts_at",
		bodyCol:  "title",
		writable: map[string]bool{FieldClientID: true},
	},
	KindNotes: {
		table:    "session_notes",
		timeCol:  "created_at",
		bodyCol:  "content",
		linkable: true,
		writable: map[string]bool{FieldClientID: true, FieldSessionID: true},
	},
	KindRecordings: {
		table:    "recordings",
		timeCol:  "created_at",
		bodyCol:  "transcript",
		linkable: true,
		writable: map[string]bool{FieldClientID: true, FieldSessionID: true, FieldTranscript: true},
	},
}

func specFor(kind Kind) (tableSpec, error) {
	spec, ok := tableSpecs[kind]
	if !ok {
		return tableSpec{}, fmt.Errorf("unknown record kind: %q", kind)
	}
	return spec, nil
}

// Storage is the SQLite implementation of RecordStore
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new Storage instance
func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// DB exposes the underlying handle
func (s *Storage) DB() *sql.DB {
	return s.db
}

// ownerClause returns a WHERE fragment and args restricting rows to owner
func ownerClause(alias, owner string) (string, []any) {
	if owner == "" {
		return "1=1", nil
	}
	return alias + "owner_id = ?", []any{owner}
}

// GetClients loads all clients in registration order
func (s *Storage) GetClients(ctx context.Context, owner string) ([]ClientIdentity, error) {
	where, args := ownerClause("", owner)
	query := "SELECT id, owner_id, name, aliases FROM clients WHERE " + where + " ORDER BY created_at, rowid"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "query", Table: "clients", Err: err}
	}
	defer rows.Close()

	var clients []ClientIdentity
	for rows.Next() {
		var c ClientIdentity
		var aliases sql.NullString
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.CanonicalName, &aliases); err != nil {
			return nil, &StorageError{Op: "scan", Table: "clients", Err: err}
		}
		if aliases.Valid && strings.TrimSpace(aliases.String) != "" {
			if err := json.Unmarshal([]byte(aliases.String), &c.NameVariants); err != nil {
				// A broken alias column must not hide the client itself
				LogWarn("Ignoring unparseable aliases for client %s: %v", c.ID, err)
				c.NameVariants = nil
			}
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate", Table: "clients", Err: err}
	}
	return clients, nil
}

// UpsertClients inserts or replaces client rows
func (s *Storage) UpsertClients(ctx context.Context, clients []ClientIdentity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "begin", Table: "clients", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO clients (id, owner_id, name, aliases) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, aliases = excluded.aliases`)
	if err != nil {
		return &StorageError{Op: "prepare", Table: "clients", Err: err}
	}
	defer stmt.Close()

	for _, c := range clients {
		var aliases any
		if len(c.NameVariants) > 0 {
			data, err := json.Marshal(c.NameVariants)
			if err != nil {
				return fmt.Errorf("failed to encode aliases for %s: %w", c.ID, err)
			}
			aliases = string(data)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.OwnerID, c.CanonicalName, aliases); err != nil {
			return &StorageError{Op: "upsert", Table: "clients", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "commit", Table: "clients", Err: err}
	}
	return nil
}

func (s *Storage) selectRecordColumns(spec tableSpec) string {
	sessionCol := "NULL"
	if spec.linkable {
		sessionCol = "session_id"
	}
	return fmt.Sprintf("id, owner_id, client_id, %s, client_name, %s, %s", sessionCol, spec.timeCol, spec.bodyCol)
}

func scanRecord(kind Kind, scanner interface{ Scan(...any) error }) (OrphanRecord, error) {
	var (
		rec                                 OrphanRecord
		clientID, sessionID, name, ts, body sql.NullString
	)
	if err := scanner.Scan(&rec.ID, &rec.OwnerID, &clientID, &sessionID, &name, &ts, &body); err != nil {
		return OrphanRecord{}, err
	}
	rec.Kind = kind
	rec.ClientID = strings.TrimSpace(clientID.String)
	rec.SessionID = strings.TrimSpace(sessionID.String)
	rec.ClientNameHint = name.String
	rec.Timestamp = parseTimestamp(ts.String)
	rec.Body = body.String
	rec.Source = SourceLive
	return rec, nil
}

// GetOrphans loads records of kind that lack a client association, or for
// notes and recordings, a session association
func (s *Storage) GetOrphans(ctx context.Context, kind Kind, owner string) ([]OrphanRecord, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}

	missing := "(client_id IS NULL OR client_id = '')"
	if spec.linkable {
		missing = "(client_id IS NULL OR client_id = '' OR session_id IS NULL OR session_id = '')"
	}
	return s.queryRecords(ctx, kind, spec, missing, owner)
}

// ListRecords loads every record of kind regardless of its associations
func (s *Storage) ListRecords(ctx context.Context, kind Kind, owner string) ([]OrphanRecord, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}
	return s.queryRecords(ctx, kind, spec, "1=1", owner)
}

func (s *Storage) queryRecords(ctx context.Context, kind Kind, spec tableSpec, filter, owner string) ([]OrphanRecord, error) {
	where, args := ownerClause("", owner)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s AND %s ORDER BY rowid",
		s.selectRecordColumns(spec), spec.table, filter, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "query", Table: spec.table, Err: err}
	}
	defer rows.Close()

	var records []OrphanRecord
	for rows.Next() {
		rec, err := scanRecord(kind, rows)
		if err != nil {
			return nil, &StorageError{Op: "scan", Table: spec.table, Err: err}
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate", Table: spec.table, Err: err}
	}
	return records, nil
}

// GetRecord loads a single record by id, returning ErrNotFound when absent
func (s *Storage) GetRecord(ctx context.Context, kind Kind, id string) (OrphanRecord, error) {
	spec, err := specFor(kind)
	if err != nil {
		return OrphanRecord{}, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", s.selectRecordColumns(spec), spec.table)
	rec, err := scanRecord(kind, s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return OrphanRecord{}, ErrNotFound
	}
	if err != nil {
		return OrphanRecord{}, &StorageError{Op: "query", Table: spec.table, Err: err}
	}
	return rec, nil
}

// GetSessions loads every session occurrence, used as link candidates
func (s *Storage) GetSessions(ctx context.Context, owner string) ([]SessionOccurrence, error) {
	where, args := ownerClause("", owner)
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, client_id, starts_at FROM sessions WHERE "+where+" ORDER BY starts_at, id", args...)
	if err != nil {
		return nil, &StorageError{Op: "query", Table: "sessions", Err: err}
	}
	defer rows.Close()

	var sessions []SessionOccurrence
	for rows.Next() {
		var occ SessionOccurrence
		var clientID, startsAt sql.NullString
		if err := rows.Scan(&occ.ID, &clientID, &startsAt); err != nil {
			return nil, &StorageError{Op: "scan", Table: "sessions", Err: err}
		}
		occ.ClientID = strings.TrimSpace(clientID.String)
		occ.Timestamp = parseTimestamp(startsAt.String)
		sessions = append(sessions, occ)
	}

	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate", Table: "sessions", Err: err}
	}
	return sessions, nil
}

func writableColumn(kind Kind, field string) (tableSpec, error) {
	spec, err := specFor(kind)
	if err != nil {
		return tableSpec{}, err
	}
	if !spec.writable[field] {
		return tableSpec{}, fmt.Errorf("field %q is not writable on %s", field, kind)
	}
	return spec, nil
}

// FillField sets field only where it is NULL or empty
func (s *Storage) FillField(ctx context.Context, kind Kind, id, field, value string) (bool, error) {
	spec, err := writableColumn(kind, field)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE id = ? AND (%s IS NULL OR %s = '')",
		spec.table, field, field, field)
	res, err := s.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return false, &StorageError{Op: "update", Table: spec.table, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &StorageError{Op: "update", Table: spec.table, Err: err}
	}
	return n > 0, nil
}

// UpdateField sets field unconditionally
func (s *Storage) UpdateField(ctx context.Context, kind Kind, id, field, value string) error {
	spec, err := writableColumn(kind, field)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE id = ?", spec.table, field)
	res, err := s.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return &StorageError{Op: "update", Table: spec.table, Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Upsert inserts records, or for existing ids fills only the columns that are
// still empty. Present associations are never cleared or replaced.
func (s *Storage) Upsert(ctx context.Context, kind Kind, records []OrphanRecord) error {
	spec, err := specFor(kind)
	if err != nil {
		return err
	}

	t := spec.table
	fill := func(col string) string {
		return fmt.Sprintf("%s = COALESCE(NULLIF(%s.%s, ''), excluded.%s)", col, t, col, col)
	}
	cols := []string{"id", "owner_id", "client_id", "client_name", spec.timeCol, spec.bodyCol}
	updates := []string{fill("client_id"), fill("client_name"), fill(spec.timeCol), fill(spec.bodyCol)}
	if spec.linkable {
		cols = append(cols, "session_id")
		updates = append(updates, fill("session_id"))
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		t, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		strings.Join(updates, ", "))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "begin", Table: t, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return &StorageError{Op: "prepare", Table: t, Err: err}
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		args := []any{rec.ID, rec.OwnerID, nullable(rec.ClientID), nullable(rec.ClientNameHint),
			nullable(formatTimestamp(rec.Timestamp)), nullable(rec.Body)}
		if spec.linkable {
			args = append(args, nullable(rec.SessionID))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return &StorageError{Op: "upsert", Table: t, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "commit", Table: t, Err: err}
	}
	return nil
}

// ListNotes loads the notes in owner scope with their client names
func (s *Storage) ListNotes(ctx context.Context, owner string) ([]NoteRow, error) {
	where, args := ownerClause("n.", owner)
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.owner_id, n.client_id, COALESCE(c.name, n.client_name), n.session_id, n.content, n.created_at
		FROM session_notes n LEFT JOIN clients c ON c.id = n.client_id
		WHERE `+where+` ORDER BY n.created_at DESC, n.id`, args...)
	if err != nil {
		return nil, &StorageError{Op: "query", Table: "session_notes", Err: err}
	}
	defer rows.Close()

	var notes []NoteRow
	for rows.Next() {
		var n NoteRow
		var clientID, name, sessionID, content, created sql.NullString
		if err := rows.Scan(&n.ID, &n.OwnerID, &clientID, &name, &sessionID, &content, &created); err != nil {
			return nil, &StorageError{Op: "scan", Table: "session_notes", Err: err}
		}
		n.ClientID, n.ClientName, n.SessionID, n.Content = clientID.String, name.String, sessionID.String, content.String
		n.CreatedAt = parseTimestamp(created.String)
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate", Table: "session_notes", Err: err}
	}
	return notes, nil
}

// ListRecordings loads the recordings in owner scope with their client names
func (s *Storage) ListRecordings(ctx context.Context, owner string) ([]RecordingRow, error) {
	where, args := ownerClause("r.", owner)
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.owner_id, r.client_id, COALESCE(c.name, r.client_name), r.session_id, r.transcript, r.created_at
		FROM recordings r LEFT JOIN clients c ON c.id = r.client_id
		WHERE `+where+` ORDER BY r.created_at DESC, r.id`, args...)
	if err != nil {
		return nil, &StorageError{Op: "query", Table: "recordings", Err: err}
	}
	defer rows.Close()

	var recordings []RecordingRow
	for rows.Next() {
		var r RecordingRow
		var clientID, name, sessionID, transcript, created sql.NullString
		if err := rows.Scan(&r.ID, &r.OwnerID, &clientID, &name, &sessionID, &transcript, &created); err != nil {
			return nil, &StorageError{Op: "scan", Table: "recordings", Err: err}
		}
		r.ClientID, r.ClientName, r.SessionID, r.Transcript = clientID.String, name.String, sessionID.String, transcript.String
		r.CreatedAt = parseTimestamp(created.String)
		recordings = append(recordings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate", Table: "recordings", Err: err}
	}
	return recordings, nil
}

// ListSessions loads the sessions in owner scope with their client names
func (s *Storage) ListSessions(ctx context.Context, owner string) ([]SessionRow, error) {
	where, args := ownerClause("s.", owner)
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.owner_id, s.client_id, COALESCE(c.name, s.client_name), s.title, s.starts_at
		FROM sessions s LEFT JOIN clients c ON c.id = s.client_id
		WHERE `+where+` ORDER BY s.starts_at DESC, s.id`, args...)
	if err != nil {
		return nil, &StorageError{Op: "query", Table: "sessions", Err: err}
	}
	defer rows.Close()

	var sessions []SessionRow
	for rows.Next() {
		var r SessionRow
		var clientID, name, title, startsAt sql.NullString
		if err := rows.Scan(&r.ID, &r.OwnerID, &clientID, &name, &title, &startsAt); err != nil {
			return nil, &StorageError{Op: "scan", Table: "sessions", Err: err}
		}
		r.ClientID, r.ClientName, r.Title = clientID.String, name.String, title.String
		r.StartsAt = parseTimestamp(startsAt.String)
		sessions = append(sessions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate", Table: "sessions", Err: err}
	}
	return sessions, nil
}

// CountOrphans returns how many records of each kind lack an association
func (s *Storage) CountOrphans(ctx context.Context, owner string) (map[Kind]int, error) {
	counts := make(map[Kind]int, len(AllKinds))
	for _, kind := range AllKinds {
		records, err := s.GetOrphans(ctx, kind, owner)
		if err != nil {
			return nil, err
		}
		counts[kind] = len(records)
	}
	return counts, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
