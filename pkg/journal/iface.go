package journal

import (
	"github.com/daviddao/tickboard/pkg/actor"
	"github.com/daviddao/tickboard/pkg/model"
)

// Interface is the read side of a journal plus its lifecycle. The cmd layer
// depends on it rather than on *Journal.
type Interface interface {
	// Close closes the database and reports collected write errors.
	Close() error

	// --- Runs ---

	// BeginRun starts a new run and makes it the target of observer hooks.
	BeginRun(workers int, config string) (string, error)

	// ListRuns returns all runs, oldest first.
	ListRuns() ([]model.Run, error)

	// LatestRun returns the newest run, or nil.
	LatestRun() (*model.Run, error)

	// --- Actors ---

	// ListActors returns the actors spawned during a run.
	ListActors(runID string) ([]model.ActorRecord, error)

	// --- Events ---

	// InsertEvent appends an event to the log. Returns the row ID.
	InsertEvent(e *model.Event) (int64, error)

	// ListEvents returns events of a run with tick >= sinceTick.
	ListEvents(runID string, sinceTick int64, limit int) ([]model.Event, error)

	// CountEvents returns the number of events of a run.
	CountEvents(runID string) int64
}

var (
	_ Interface      = (*Journal)(nil)
	_ actor.Observer = (*Journal)(nil)
)
