package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/feedmailer/pkg/domain"
)

// ErrStaleState is returned by Save when another invocation saved the same
// feed's state after we loaded it. The caller should abort the feed cleanly
// instead of overwriting the winner's identities.
var ErrStaleState = errors.New("stale state rejected")

// StateRepository persists per-feed seen state keyed by feed URL
type StateRepository struct {
	db *sqlx.DB
}

// NewStateRepository creates a new seen-state repository
func NewStateRepository(db *sqlx.DB) *StateRepository {
	return &StateRepository{db: db}
}

// feedStateRow is the database shape of a seen state
type feedStateRow struct {
	FeedURL       string       `db:"feed_url"`
	Initialized   bool         `db:"initialized"`
	KnownIDs      string       `db:"known_ids"`
	LastCheckedAt sql.NullTime `db:"last_checked_at"`
	Version       int64        `db:"version"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

// FeedStateInfo is a summary row for the status API
type FeedStateInfo struct {
	FeedURL       string     `json:"feed_url"`
	Initialized   bool       `json:"initialized"`
	KnownCount    int        `json:"known_count"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
	Version       int64      `json:"version"`
}

// Load retrieves the seen state for a feed URL. A feed never checked before
// yields a fresh uninitialized state, not an error.
func (r *StateRepository) Load(ctx context.Context, feedURL string) (domain.SeenState, error) {
	var row feedStateRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM feed_state WHERE feed_url = ?", feedURL)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewSeenState(), nil
	}
	if err != nil {
		return domain.SeenState{}, fmt.Errorf("load state for %s: %w", feedURL, err)
	}

	known := map[string]time.Time{}
	if err := json.Unmarshal([]byte(row.KnownIDs), &known); err != nil {
		return domain.SeenState{}, fmt.Errorf("decode known ids for %s: %w", feedURL, err)
	}

	state := domain.SeenState{
		Initialized: row.Initialized,
		KnownIDs:    known,
		Version:     row.Version,
	}
	if row.LastCheckedAt.Valid {
		state.LastCheckedAt = row.LastCheckedAt.Time
	}
	return state, nil
}

// Save persists the seen state with a compare-and-swap on the version token.
// A state loaded at version N is written only if the stored row is still at
// version N; otherwise ErrStaleState is returned and nothing changes. States
// with version 0 insert a new row and lose the race if one appeared meanwhile.
// SQLite lock contention is retried with backoff, real failures are not.
func (r *StateRepository) Save(ctx context.Context, feedURL string, state domain.SeenState) error {
	known, err := json.Marshal(state.KnownIDs)
	if err != nil {
		return fmt.Errorf("encode known ids for %s: %w", feedURL, err)
	}

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	return retrier.Do(ctx, func() error {
		if state.Version == 0 {
			return r.insert(ctx, feedURL, state, string(known))
		}
		return r.update(ctx, feedURL, state, string(known))
	}, ErrStaleState, errCritical)
}

// insert creates the row for a feed's first save
func (r *StateRepository) insert(ctx context.Context, feedURL string, state domain.SeenState, known string) error {
	query := `
		INSERT INTO feed_state (feed_url, initialized, known_ids, last_checked_at, version, updated_at)
		VALUES (?, ?, ?, ?, 1, datetime('now'))
	`
	_, err := r.db.ExecContext(ctx, query, feedURL, state.Initialized, known, state.LastCheckedAt)
	if err != nil {
		if isConflictError(err) {
			return ErrStaleState // someone created the row between our load and save
		}
		if isLockError(err) {
			return err // retry
		}
		return &criticalError{err: fmt.Errorf("insert state for %s: %w", feedURL, err)}
	}
	return nil
}

// update rewrites the row only if its version is unchanged since load
func (r *StateRepository) update(ctx context.Context, feedURL string, state domain.SeenState, known string) error {
	query := `
		UPDATE feed_state
		SET initialized = ?, known_ids = ?, last_checked_at = ?,
		    version = version + 1, updated_at = datetime('now')
		WHERE feed_url = ? AND version = ?
	`
	res, err := r.db.ExecContext(ctx, query, state.Initialized, known, state.LastCheckedAt, feedURL, state.Version)
	if err != nil {
		if isLockError(err) {
			return err // retry
		}
		return &criticalError{err: fmt.Errorf("update state for %s: %w", feedURL, err)}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &criticalError{err: fmt.Errorf("rows affected for %s: %w", feedURL, err)}
	}
	if affected == 0 {
		return ErrStaleState
	}
	return nil
}

// List returns state summaries for all known feeds, for the status API
func (r *StateRepository) List(ctx context.Context) ([]FeedStateInfo, error) {
	var rows []feedStateRow
	err := r.db.SelectContext(ctx, &rows, "SELECT * FROM feed_state ORDER BY feed_url")
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}

	infos := make([]FeedStateInfo, 0, len(rows))
	for _, row := range rows {
		known := map[string]time.Time{}
		if err := json.Unmarshal([]byte(row.KnownIDs), &known); err != nil {
			return nil, fmt.Errorf("decode known ids for %s: %w", row.FeedURL, err)
		}
		info := FeedStateInfo{
			FeedURL:     row.FeedURL,
			Initialized: row.Initialized,
			KnownCount:  len(known),
			Version:     row.Version,
		}
		if row.LastCheckedAt.Valid {
			t := row.LastCheckedAt.Time
			info.LastCheckedAt = &t
		}
		infos = append(infos, info)
	}
	return infos, nil
}
