// internal/core/ports/notifier.go
package ports

// Notifier receives progress events from the replenisher. It decouples the
// use case from how progress is shown (pterm, plain text, nothing).
type Notifier interface {
	// Notify handles one event. It must not block for long.
	Notify(event Event)
}

// Event is one progress notification.
type Event struct {
	// Type kind of event
	Type EventType

	// Stage step of the run the event belongs to
	Stage Stage

	// Count stage specific quantity (estimate, files to generate, files deleted)
	Count int

	// Path file or key the event refers to (optional)
	Path string

	// Err failure for EventFileFailed
	Err error
}

// EventType classifies events.
type EventType string

const (
	EventStageStarted   EventType = "stage_started"
	EventStageCompleted EventType = "stage_completed"
	EventEstimate       EventType = "estimate"
	EventNothingToDo    EventType = "nothing_to_do"
	EventFileFailed     EventType = "file_failed"
)

// Stage names the steps of a replenish run, in execution order.
type Stage string

const (
	StageEstimate Stage = "estimate"
	StageGenerate Stage = "generate"
	StageListOld  Stage = "list_old"
	StageCopy     Stage = "copy"
	StageDelete   Stage = "delete"
	StageCleanup  Stage = "cleanup"
)

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }
