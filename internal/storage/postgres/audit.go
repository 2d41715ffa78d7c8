package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/warchief/internal/game/combat"
)

// ErrSessionArchived is returned when a session ID has already been archived.
var ErrSessionArchived = errors.New("session already archived")

// ErrSessionNotFound is returned when no archived session has the given ID.
var ErrSessionNotFound = errors.New("session not found")

// SessionRecord summarizes one decided session.
type SessionRecord struct {
	ID         uuid.UUID
	Match      string
	Winner     combat.Side
	Loser      combat.Side
	Reason     combat.OutcomeReason
	Duration   time.Duration
	ArchivedAt time.Time
}

// AuditRepository archives combat audit logs.
type AuditRepository struct {
	db *pgxpool.Pool
}

// NewAuditRepository creates an AuditRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

var auditColumns = []string{"session_id", "seq", "at_ns", "actor", "ability", "target", "kind", "amount", "applied"}

// Append copies entries into the archive under sessionID.
//
// Precondition: entry Seq values are unique within the session.
// Postcondition: Returns the number of rows written.
func (r *AuditRepository) Append(ctx context.Context, sessionID uuid.UUID, entries []combat.AuditEntry) (int64, error) {
	return appendEntries(ctx, r.db, sessionID, entries)
}

type copier interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error)
}

func appendEntries(ctx context.Context, db copier, sessionID uuid.UUID, entries []combat.AuditEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	n, err := db.CopyFrom(ctx, pgx.Identifier{"combat_audit"}, auditColumns,
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			return []any{sessionID, int64(e.Seq), int64(e.At), e.Actor, e.Ability, e.Target, e.Kind.String(), e.Amount, e.Applied}, nil
		}),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return 0, fmt.Errorf("appending audit for %s: %w", sessionID, ErrSessionArchived)
		}
		return 0, fmt.Errorf("appending audit for %s: %w", sessionID, err)
	}
	return n, nil
}

// Archive records the session summary and its full audit log in one transaction.
//
// Postcondition: Returns ErrSessionArchived if rec.ID was archived before;
// nothing is written in that case.
func (r *AuditRepository) Archive(ctx context.Context, rec SessionRecord, entries []combat.AuditEntry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning archive of %s: %w", rec.ID, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO combat_sessions (id, match, winner, loser, reason, duration_ns)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Match, string(rec.Winner), string(rec.Loser), string(rec.Reason), int64(rec.Duration),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrSessionArchived
		}
		return fmt.Errorf("inserting session %s: %w", rec.ID, err)
	}
	if _, err := appendEntries(ctx, tx, rec.ID, entries); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing archive of %s: %w", rec.ID, err)
	}
	return nil
}

// Session returns the archived summary for id.
func (r *AuditRepository) Session(ctx context.Context, id uuid.UUID) (SessionRecord, error) {
	var rec SessionRecord
	var winner, loser, reason string
	var dur int64
	err := r.db.QueryRow(ctx,
		`SELECT id, match, winner, loser, reason, duration_ns, archived_at
		 FROM combat_sessions WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.Match, &winner, &loser, &reason, &dur, &rec.ArchivedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SessionRecord{}, ErrSessionNotFound
		}
		return SessionRecord{}, fmt.Errorf("querying session %s: %w", id, err)
	}
	rec.Winner = combat.Side(winner)
	rec.Loser = combat.Side(loser)
	rec.Reason = combat.OutcomeReason(reason)
	rec.Duration = time.Duration(dur)
	return rec, nil
}

// List returns the archived entries for sessionID in sequence order.
func (r *AuditRepository) List(ctx context.Context, sessionID uuid.UUID) ([]combat.AuditEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT seq, at_ns, actor, ability, target, kind, amount, applied
		 FROM combat_audit WHERE session_id = $1 ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing audit for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []combat.AuditEntry
	for rows.Next() {
		var e combat.AuditEntry
		var seq, at int64
		var kind string
		if err := rows.Scan(&seq, &at, &e.Actor, &e.Ability, &e.Target, &kind, &e.Amount, &e.Applied); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if err := e.Kind.UnmarshalText([]byte(kind)); err != nil {
			return nil, err
		}
		e.Seq = uint64(seq)
		e.At = time.Duration(at)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing audit for %s: %w", sessionID, err)
	}
	return out, nil
}
