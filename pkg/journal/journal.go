// Package journal records simulation runs into SQLite.
//
// A Journal is an actor.Observer: attached to a System it appends one row
// per spawn, stop, send and delivery, keyed by a run id. The simulation
// itself never reads the journal back; it exists so that `tb log` and
// `tb status` can inspect what happened after the fact.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pingcap/log"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/daviddao/tickboard/pkg/actor"
	"github.com/daviddao/tickboard/pkg/errors"
	"github.com/daviddao/tickboard/pkg/logutil"
	"github.com/daviddao/tickboard/pkg/model"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory journal.
const MemoryPath = ":memory:"

// Journal manages all SQLite operations of one journal file.
type Journal struct {
	db    *sql.DB
	runID string
	err   error
}

// Open opens (or creates) the journal at path and initializes the schema.
func Open(path string) (*Journal, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	if path == MemoryPath {
		dsn = path
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.WrapError(errors.ErrJournalOpen, err, path)
	}
	if path == MemoryPath {
		// every connection to :memory: is a different database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, errors.WrapError(errors.ErrJournalOpen, err, path)
	}
	return j, nil
}

// Close closes the database and returns any error recorded by the observer
// hooks.
func (j *Journal) Close() error {
	return multierr.Append(j.err, j.db.Close())
}

// Err returns the errors recorded by the observer hooks so far.
func (j *Journal) Err() error { return j.err }

// RunID returns the id of the run being recorded, or "".
func (j *Journal) RunID() string { return j.runID }

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		workers    INTEGER NOT NULL DEFAULT 0,
		config     TEXT,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS actors (
		run_id     TEXT NOT NULL REFERENCES runs(id),
		id         INTEGER NOT NULL,
		name       TEXT NOT NULL,
		spawned_at INTEGER NOT NULL,
		stopped_at INTEGER NOT NULL DEFAULT -1,
		PRIMARY KEY (run_id, id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id       TEXT NOT NULL REFERENCES runs(id),
		tick         INTEGER NOT NULL,
		kind         TEXT NOT NULL,
		actor_id     INTEGER NOT NULL,
		deliver_at   INTEGER NOT NULL DEFAULT 0,
		message_kind TEXT,
		body         TEXT,
		created_at   TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_events_run_kind ON events(run_id, kind);
	`
	_, err := j.db.Exec(schema)
	return err
}

// ---------------------------------------------------------------------------
// Runs
// ---------------------------------------------------------------------------

// BeginRun starts recording a new run and returns its id.
func (j *Journal) BeginRun(workers int, config string) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	err := retryOnContention(func() error {
		_, err := j.db.Exec(
			`INSERT INTO runs (id, workers, config, started_at) VALUES (?, ?, ?, ?)`,
			id, workers, config, now,
		)
		return err
	})
	if err != nil {
		return "", errors.WrapError(errors.ErrJournalWrite, err)
	}
	j.runID = id
	return id, nil
}

// ListRuns returns all runs, oldest first.
func (j *Journal) ListRuns() ([]model.Run, error) {
	rows, err := j.db.Query(
		`SELECT id, workers, COALESCE(config,''), started_at FROM runs ORDER BY started_at ASC, id ASC`,
	)
	if err != nil {
		return nil, errors.WrapError(errors.ErrJournalRead, err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var startedStr string
		if err := rows.Scan(&r.ID, &r.Workers, &r.Config, &startedStr); err != nil {
			return nil, errors.WrapError(errors.ErrJournalRead, err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339Nano, startedStr)
		if err != nil {
			return nil, fmt.Errorf("parse started_at for run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recently started run, or nil when the journal
// is empty.
func (j *Journal) LatestRun() (*model.Run, error) {
	runs, err := j.ListRuns()
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[len(runs)-1], nil
}

// ---------------------------------------------------------------------------
// Actors
// ---------------------------------------------------------------------------

// ListActors returns the actors of a run ordered by id.
func (j *Journal) ListActors(runID string) ([]model.ActorRecord, error) {
	rows, err := j.db.Query(
		`SELECT run_id, id, name, spawned_at, stopped_at FROM actors WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, errors.WrapError(errors.ErrJournalRead, err)
	}
	defer rows.Close()

	var actors []model.ActorRecord
	for rows.Next() {
		var a model.ActorRecord
		if err := rows.Scan(&a.RunID, &a.ID, &a.Name, &a.SpawnedAt, &a.StoppedAt); err != nil {
			return nil, errors.WrapError(errors.ErrJournalRead, err)
		}
		actors = append(actors, a)
	}
	return actors, rows.Err()
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// InsertEvent appends an event to the log. Returns the auto-generated row ID.
func (j *Journal) InsertEvent(e *model.Event) (int64, error) {
	var lastID int64
	err := retryOnContention(func() error {
		res, err := j.db.Exec(
			`INSERT INTO events (run_id, tick, kind, actor_id, deliver_at, message_kind, body, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.RunID, e.Tick, string(e.Kind), e.ActorID, e.DeliverAt, e.MessageKind, e.Body,
			e.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
		lastID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, errors.WrapError(errors.ErrJournalWrite, err)
	}
	return lastID, nil
}

// ListEvents returns events of a run with tick >= sinceTick, in log order.
func (j *Journal) ListEvents(runID string, sinceTick int64, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := j.db.Query(
		`SELECT id, run_id, tick, kind, actor_id, deliver_at,
		        COALESCE(message_kind,''), COALESCE(body,''), created_at
		 FROM events WHERE run_id = ? AND tick >= ?
		 ORDER BY id ASC LIMIT ?`,
		runID, sinceTick, limit,
	)
	if err != nil {
		return nil, errors.WrapError(errors.ErrJournalRead, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// CountEvents returns the number of events recorded for a run.
func (j *Journal) CountEvents(runID string) int64 {
	var count int64
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM events WHERE run_id = ?`, runID).Scan(&count); err != nil {
		return 0
	}
	return count
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		var e model.Event
		var kindStr, createdStr string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Tick, &kindStr, &e.ActorID, &e.DeliverAt,
			&e.MessageKind, &e.Body, &createdStr); err != nil {
			return nil, errors.WrapError(errors.ErrJournalRead, err)
		}
		e.Kind = model.EventKind(kindStr)
		var parseErr error
		e.CreatedAt, parseErr = time.Parse(time.RFC3339Nano, createdStr)
		if parseErr != nil {
			return nil, fmt.Errorf("parse created_at time for event %d: %w", e.ID, parseErr)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ---------------------------------------------------------------------------
// Observer hooks
// ---------------------------------------------------------------------------

// OnSpawn implements actor.Observer.
func (j *Journal) OnSpawn(a actor.Actor, tick int64) {
	if !j.active() {
		return
	}
	err := retryOnContention(func() error {
		_, err := j.db.Exec(
			`INSERT INTO actors (run_id, id, name, spawned_at) VALUES (?, ?, ?, ?)`,
			j.runID, int64(a.ID()), actor.NameOf(a), tick,
		)
		return err
	})
	if err != nil {
		j.fail(errors.WrapError(errors.ErrJournalWrite, err))
		return
	}
	j.record(model.EventSpawn, int64(a.ID()), tick, 0, nil)
}

// OnStop implements actor.Observer.
func (j *Journal) OnStop(a actor.Actor, tick int64) {
	if !j.active() {
		return
	}
	err := retryOnContention(func() error {
		_, err := j.db.Exec(
			`UPDATE actors SET stopped_at = ? WHERE run_id = ? AND id = ?`,
			tick, j.runID, int64(a.ID()),
		)
		return err
	})
	if err != nil {
		j.fail(errors.WrapError(errors.ErrJournalWrite, err))
		return
	}
	j.record(model.EventStop, int64(a.ID()), tick, 0, nil)
}

// OnSend implements actor.Observer.
func (j *Journal) OnSend(to actor.Actor, msg actor.Message, tick, due int64) {
	if !j.active() {
		return
	}
	j.record(model.EventSend, int64(to.ID()), tick, due, msg)
}

// OnDeliver implements actor.Observer.
func (j *Journal) OnDeliver(to actor.Actor, msg actor.Message, tick int64) {
	if !j.active() {
		return
	}
	j.record(model.EventDeliver, int64(to.ID()), tick, tick, msg)
}

func (j *Journal) active() bool {
	if j.runID == "" {
		j.fail(errors.ErrJournalNoRun.GenWithStackByArgs())
		return false
	}
	return true
}

func (j *Journal) record(kind model.EventKind, actorID, tick, due int64, msg actor.Message) {
	e := &model.Event{
		RunID:     j.runID,
		Tick:      tick,
		Kind:      kind,
		ActorID:   actorID,
		DeliverAt: due,
		CreatedAt: time.Now().UTC(),
	}
	if msg != nil {
		e.MessageKind = actor.KindOf(msg)
		body, err := json.Marshal(msg)
		if err != nil {
			j.fail(errors.WrapError(errors.ErrJournalWrite, err))
			return
		}
		e.Body = string(body)
	}
	if _, err := j.InsertEvent(e); err != nil {
		j.fail(err)
	}
}

func (j *Journal) fail(err error) {
	if j.err == nil {
		log.Warn("journal write failed, later failures are only collected", logutil.ShortError(err),
			zap.String("run_id", j.runID))
	}
	j.err = multierr.Append(j.err, err)
}
