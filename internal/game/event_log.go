package game

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Tuning for the match journal: a fixed-size ring buffer drained by a
// background writer, with global and per-player admission limits so a
// misbehaving client spamming joins/inputs can't grow the journal
// unboundedly or starve other players' events out of it.
const (
	journalRingSize       = 1024                   // ring buffer slots
	journalGlobalEventCap = 10000                   // events/sec across the whole room
	journalPlayerEventCap = 100                     // events/sec budget for a single player
	journalBatchSize      = 64                      // events per disk write
	journalFlushEvery     = 100 * time.Millisecond  // writer wake interval
	playerBudgetIdleReap  = 5 * time.Minute         // drop a player's limiter after this much silence
)

// EventLog is the append-only journal of everything that happens in a
// room: joins, leaves, captures, kills, and victories (see event.go for
// the payload shapes). Producers (Room.Tick and friends) call
// Emit/EmitSimple, which never blocks: the ring buffer absorbs bursts and
// a single background goroutine serializes events out to filePath,
// newline-delimited JSON, on its own schedule.
type EventLog struct {
	ring      [journalRingSize]Event
	writeHead uint64 // atomic, next slot a producer claims
	readHead  uint64 // atomic, next slot the writer drains

	roomBudget    *rate.Limiter
	playerBudgets sync.Map // map[playerID]*playerBudget

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64 // atomic, events lost to backpressure
	totalCount   uint64 // atomic, events accepted
}

// playerBudget is one player's admission-rate allowance plus the
// timestamp the reaper uses to evict budgets for players who left long
// ago instead of leaking one entry per lifetime player id.
type playerBudget struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewEventLog builds an idle journal. Start must be called before any
// Emit is accepted: until the writer is running, and again after Stop, Emit
// rejects every event and returns false.
func NewEventLog() *EventLog {
	return &EventLog{
		roomBudget: rate.NewLimiter(journalGlobalEventCap, journalGlobalEventCap/10),
		stopChan:   make(chan struct{}),
	}
}

// Start opens filePath for append and launches the writer and budget-reaper
// goroutines. Calling Start twice is a no-op.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	el.filePath = filePath

	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		el.file = file
	}

	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.reapLoop()

	return nil
}

// Stop drains the writer goroutine and closes the underlying file. Safe
// to call once per log; Room.Stop calls this as part of room teardown.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			el.file.Close()
		}
		el.fileMu.Unlock()
	})
}

// Emit admits event into the journal, subject to the room-wide and
// per-player rate budgets. Returns false if the event was rejected or
// dropped: a slow or stopped writer never backs pressure into the tick
// loop, it just loses the oldest unwritten events instead.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}

	if !el.roomBudget.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	if event.PlayerID != "" {
		budget := el.budgetFor(event.PlayerID)
		if !budget.Allow() {
			atomic.AddUint64(&el.droppedCount, 1)
			return false
		}
	}

	head := atomic.AddUint64(&el.writeHead, 1)
	tail := atomic.LoadUint64(&el.readHead)

	if head-tail >= journalRingSize {
		// Writer can't keep up: slide the window forward and sacrifice
		// the oldest unwritten event rather than block the caller.
		atomic.AddUint64(&el.readHead, 1)
		atomic.AddUint64(&el.droppedCount, 1)
	}

	event.Sequence = head
	el.ring[head%journalRingSize] = event

	atomic.AddUint64(&el.totalCount, 1)
	return true
}

// EmitSimple builds an Event from its parts and emits it. What capture,
// collision, and room code actually calls.
func (el *EventLog) EmitSimple(eventType EventType, tickNum uint64, playerID string, payload interface{}) bool {
	event := NewEvent(eventType, tickNum, playerID, payload)
	return el.Emit(event)
}

// budgetFor returns playerID's admission-rate limiter, creating one on
// first use.
func (el *EventLog) budgetFor(playerID string) *rate.Limiter {
	if v, ok := el.playerBudgets.Load(playerID); ok {
		b := v.(*playerBudget)
		b.lastUsed = time.Now()
		return b.limiter
	}

	fresh := &playerBudget{
		limiter:  rate.NewLimiter(journalPlayerEventCap, journalPlayerEventCap/10),
		lastUsed: time.Now(),
	}
	actual, _ := el.playerBudgets.LoadOrStore(playerID, fresh)
	return actual.(*playerBudget).limiter
}

// writerLoop periodically drains the ring buffer and flushes it to disk.
// Runs until stopChan closes, at which point it does one last flush so
// nothing buffered at shutdown is lost.
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(journalFlushEvery)
	defer ticker.Stop()

	batch := make([]Event, 0, journalBatchSize)

	for {
		select {
		case <-el.stopChan:
			batch = el.drain(batch[:0])
			if len(batch) > 0 {
				el.write(batch)
			}
			return

		case <-ticker.C:
			batch = el.drain(batch[:0])
			if len(batch) > 0 {
				el.write(batch)
			}
		}
	}
}

// reapLoop evicts stale per-player budgets so a long-running room doesn't
// accumulate one rate.Limiter per player who has ever joined.
func (el *EventLog) reapLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(playerBudgetIdleReap)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			el.reapStaleBudgets()
		}
	}
}

func (el *EventLog) reapStaleBudgets() {
	cutoff := time.Now().Add(-playerBudgetIdleReap)
	el.playerBudgets.Range(func(key, value interface{}) bool {
		if value.(*playerBudget).lastUsed.Before(cutoff) {
			el.playerBudgets.Delete(key)
		}
		return true
	})
}

// drain pulls up to journalBatchSize unread events out of the ring
// buffer, advancing readHead past whatever it collects.
func (el *EventLog) drain(batch []Event) []Event {
	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)

	for i := tail; i < head && len(batch) < journalBatchSize; i++ {
		batch = append(batch, el.ring[i%journalRingSize])
	}

	if len(batch) > 0 {
		atomic.AddUint64(&el.readHead, uint64(len(batch)))
	}

	return batch
}

// write appends batch to the journal file as newline-delimited JSON, one
// event per line. A no-op if the log wasn't given a file path.
func (el *EventLog) write(batch []Event) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()

	if el.file == nil {
		return
	}

	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		el.file.Write(data)
		el.file.Write([]byte("\n"))
	}
}

// GetStats reports journal health: events accepted, events dropped, how
// many are still waiting to be flushed, and whether the writer is
// running. When a MetricsHook is set, Room.Tick folds the accepted and
// dropped totals into the event-log Prometheus counters every tick.
func (el *EventLog) GetStats() map[string]interface{} {
	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)

	return map[string]interface{}{
		"total":   atomic.LoadUint64(&el.totalCount),
		"dropped": atomic.LoadUint64(&el.droppedCount),
		"pending": head - tail,
		"running": el.running.Load(),
	}
}

// GetDroppedCount returns the cumulative number of events lost to
// backpressure since the log started.
func (el *EventLog) GetDroppedCount() uint64 {
	return atomic.LoadUint64(&el.droppedCount)
}

// GetTotalCount returns the cumulative number of events accepted into
// the journal.
func (el *EventLog) GetTotalCount() uint64 {
	return atomic.LoadUint64(&el.totalCount)
}
