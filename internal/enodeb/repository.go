package enodeb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	defaultTransitionLimit = 50
	maxTransitionLimit     = 500

	// Fixed width so timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000Z"
)

// Repository stores device records and transition history.
type Repository interface {
	Upsert(ctx context.Context, rec *Record) error
	Get(ctx context.Context, serial string) (*Record, error)
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, serial string) error

	RecordTransition(ctx context.Context, t *Transition) error
	Transitions(ctx context.Context, serial string, limit int) ([]Transition, error)
}

// SQLiteRepository keeps records in the enodebs and transitions tables.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a repository over db.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert inserts or replaces the record of rec.Serial. FirstSeen is kept
// from the existing row; a zero LastSeen or UpdatedAt is set to now.
func (r *SQLiteRepository) Upsert(ctx context.Context, rec *Record) error {
	if rec.Serial == "" {
		return ErrSerialMissing
	}
	now := time.Now().UTC()
	if rec.LastSeen.IsZero() {
		rec.LastSeen = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	if rec.FirstSeen.IsZero() {
		rec.FirstSeen = rec.LastSeen
	}

	observed, err := json.Marshal(rec.Observed)
	if err != nil {
		return fmt.Errorf("encoding observed: %w", err)
	}
	desired := []byte("null")
	if rec.Desired != nil {
		if desired, err = json.Marshal(rec.Desired); err != nil {
			return fmt.Errorf("encoding desired: %w", err)
		}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO enodebs (serial, device_type, state, state_description, session_id, invasive_applied,
		     last_error, sw_version, oui, observed, desired, first_seen, last_seen, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(serial) DO UPDATE SET
		     device_type = excluded.device_type,
		     state = excluded.state,
		     state_description = excluded.state_description,
		     session_id = excluded.session_id,
		     invasive_applied = excluded.invasive_applied,
		     last_error = excluded.last_error,
		     sw_version = excluded.sw_version,
		     oui = excluded.oui,
		     observed = excluded.observed,
		     desired = excluded.desired,
		     last_seen = excluded.last_seen,
		     updated_at = excluded.updated_at`,
		rec.Serial, rec.DeviceType, rec.State, rec.StateDescription, rec.SessionID, boolToInt(rec.InvasiveApplied),
		rec.LastError, rec.SWVersion, rec.OUI, string(observed), string(desired),
		format(rec.FirstSeen), format(rec.LastSeen), format(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting enodeb %s: %w", rec.Serial, err)
	}
	return nil
}

const recordColumns = `serial, device_type, state, state_description, session_id, invasive_applied,
	last_error, sw_version, oui, observed, desired, first_seen, last_seen, updated_at`

// Get returns the record of serial or ErrNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, serial string) (*Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM enodebs WHERE serial = ?", serial))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// List returns every record ordered by serial.
func (r *SQLiteRepository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+recordColumns+" FROM enodebs ORDER BY serial")
	if err != nil {
		return nil, fmt.Errorf("listing enodebs: %w", err)
	}
	defer rows.Close()

	recs := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating enodebs: %w", err)
	}
	return recs, nil
}

// Delete removes a record and its history.
func (r *SQLiteRepository) Delete(ctx context.Context, serial string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM enodebs WHERE serial = ?", serial)
	if err != nil {
		return fmt.Errorf("deleting enodeb %s: %w", serial, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // always succeeds on SQLite
		return ErrNotFound
	}
	return nil
}

// RecordTransition appends t to the history. The device record must exist.
func (r *SQLiteRepository) RecordTransition(ctx context.Context, t *Transition) error {
	if t.Serial == "" {
		return ErrSerialMissing
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transitions (serial, from_state, to_state, reason, session_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.Serial, t.From, t.To, t.Reason, t.SessionID, format(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("recording transition of %s: %w", t.Serial, err)
	}
	t.ID, _ = res.LastInsertId() //nolint:errcheck // always succeeds on SQLite
	return nil
}

// Transitions returns the latest transitions of serial, newest first.
// limit defaults to 50 and is capped at 500.
func (r *SQLiteRepository) Transitions(ctx context.Context, serial string, limit int) ([]Transition, error) {
	if limit <= 0 {
		limit = defaultTransitionLimit
	}
	limit = min(limit, maxTransitionLimit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, serial, from_state, to_state, reason, session_id, created_at
		 FROM transitions WHERE serial = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`, serial, limit)
	if err != nil {
		return nil, fmt.Errorf("querying transitions: %w", err)
	}
	defer rows.Close()

	out := make([]Transition, 0, limit)
	for rows.Next() {
		var (
			t  Transition
			at string
		)
		if err := rows.Scan(&t.ID, &t.Serial, &t.From, &t.To, &t.Reason, &t.SessionID, &at); err != nil {
			return nil, fmt.Errorf("scanning transition: %w", err)
		}
		if t.CreatedAt, err = parse(at); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transitions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner) (*Record, error) {
	var (
		rec                         Record
		invasive                    int
		observed, desired           string
		firstSeen, lastSeen, update string
	)
	err := s.Scan(&rec.Serial, &rec.DeviceType, &rec.State, &rec.StateDescription, &rec.SessionID, &invasive,
		&rec.LastError, &rec.SWVersion, &rec.OUI, &observed, &desired, &firstSeen, &lastSeen, &update)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning enodeb: %w", err)
	}
	rec.InvasiveApplied = invasive != 0
	if err := json.Unmarshal([]byte(observed), &rec.Observed); err != nil {
		return nil, fmt.Errorf("decoding observed of %s: %w", rec.Serial, err)
	}
	if err := json.Unmarshal([]byte(desired), &rec.Desired); err != nil {
		return nil, fmt.Errorf("decoding desired of %s: %w", rec.Serial, err)
	}
	for _, f := range []struct {
		dst *time.Time
		src string
	}{{&rec.FirstSeen, firstSeen}, {&rec.LastSeen, lastSeen}, {&rec.UpdatedAt, update}} {
		if *f.dst, err = parse(f.src); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

func format(t time.Time) string { return t.UTC().Format(timeLayout) }

func parse(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
