package obs

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
	LevelAPI   Level = "API"
	LevelAlgo  Level = "ALGO"
)

// Module tags used by dispatch events.
const (
	ModuleGeocoder = "GEOCODER"
	ModuleCache    = "CACHE"
	ModuleCore     = "CORE"
	ModuleAPI      = "API"
)

// Event is one entry of the dispatch log stream consumed by log viewers.
type Event struct {
	Seq     uint64         `json:"seq"`
	Time    time.Time      `json:"timestamp"`
	Level   Level          `json:"level"`
	Module  string         `json:"module"`
	Message string         `json:"message"`
	CostMs  *int64         `json:"cost_ms,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Cost sets CostMs from d and returns the event.
func (e Event) Cost(d time.Duration) Event {
	ms := d.Milliseconds()
	e.CostMs = &ms
	return e
}

type EventSink interface {
	Emit(ev Event)
}

type NopSink struct{}

func (NopSink) Emit(Event) {}

// Journal keeps the most recent events in a fixed-size ring and mirrors every
// event to the logger. Safe for concurrent use.
type Journal struct {
	mu     sync.Mutex
	log    zerolog.Logger
	events []Event
	next   int
	full   bool
	seq    uint64
	now    func() time.Time
}

func NewJournal(capacity int, log zerolog.Logger) *Journal {
	if capacity <= 0 {
		capacity = 500
	}
	return &Journal{
		log:    log,
		events: make([]Event, capacity),
		now:    time.Now,
	}
}

func (j *Journal) Emit(ev Event) {
	j.mu.Lock()
	j.seq++
	ev.Seq = j.seq
	if ev.Time.IsZero() {
		ev.Time = j.now()
	}
	j.events[j.next] = ev
	j.next = (j.next + 1) % len(j.events)
	if j.next == 0 {
		j.full = true
	}
	j.mu.Unlock()

	j.write(ev)
}

func (j *Journal) write(ev Event) {
	var le *zerolog.Event
	switch ev.Level {
	case LevelError:
		le = j.log.Error()
	case LevelWarn:
		le = j.log.Warn()
	default:
		le = j.log.Info()
	}

	le = le.Uint64("seq", ev.Seq).Str("level_tag", string(ev.Level)).Str("module", ev.Module)
	if ev.CostMs != nil {
		le = le.Int64("cost_ms", *ev.CostMs)
	}
	if len(ev.Details) > 0 {
		le = le.Fields(ev.Details)
	}
	le.Msg(ev.Message)
}

// Recent returns up to n events, oldest first. n <= 0 returns everything held.
func (j *Journal) Recent(n int) []Event {
	j.mu.Lock()
	defer j.mu.Unlock()

	var ordered []Event
	if j.full {
		ordered = append(ordered, j.events[j.next:]...)
	}
	ordered = append(ordered, j.events[:j.next]...)

	if n > 0 && n < len(ordered) {
		ordered = ordered[len(ordered)-n:]
	}

	out := make([]Event, len(ordered))
	copy(out, ordered)
	return out
}
