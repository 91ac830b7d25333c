package game

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"paperio/internal/config"
	"paperio/internal/geometry"
)

// colorPalette is the opaque set of display tokens handed out to new
// players round-robin. The core never interprets these beyond forwarding
// them in the projection.
var colorPalette = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f1c40f",
	"#9b59b6", "#1abc9c", "#e67e22", "#34495e",
}

// Room owns exactly one game instance: a World, its supporting engines, a
// bot brains (spawned and reaped as the population changes), and the tick driver. Multiple rooms may run
// concurrently as independent goroutines; they share no mutable state.
type Room struct {
	cfg config.AppConfig

	world      *World
	capture    *CaptureEngine
	collision  *CollisionEngine
	projection *NetStateProjection

	Leaderboard *Leaderboard
	EventLog    *EventLog

	bots map[string]*BotBrain
	rng  *rand.Rand

	metrics MetricsHook

	inputsMu      sync.Mutex
	pendingInputs map[string]float64 // latest targetAngle per player; coalesced, older discarded

	snapshotMu sync.RWMutex
	snapshot   RoomState

	tickNum         uint64
	botManagerAccum float64
	nextColorIdx    int
	nextBotSeq      int

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRoom builds an idle room. Start must be called to begin ticking. When
// eventLogPath is non-empty the room's EventLog is started here, which
// launches its writer and reaper goroutines; the tick goroutine starts only
// in Start.
func NewRoom(cfg config.AppConfig, eventLogPath string) *Room {
	world := NewWorld(cfg.World)

	var eventLog *EventLog
	if eventLogPath != "" {
		eventLog = NewEventLog()
		if err := eventLog.Start(eventLogPath); err != nil {
			log.Printf("⚠️ event log disabled: %v", err)
			eventLog = nil
		}
	}

	return &Room{
		cfg:           cfg,
		world:         world,
		capture:       NewCaptureEngine(cfg.World, eventLog),
		collision:     NewCollisionEngine(cfg.World, cfg.Spatial.GridCellSize, eventLog),
		projection:    NewNetStateProjection(),
		Leaderboard:   NewLeaderboard(),
		EventLog:      eventLog,
		bots:          make(map[string]*BotBrain),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		pendingInputs: make(map[string]float64),
		stopCh:        make(chan struct{}),
	}
}

// Start launches the fixed-timestep tick goroutine. Safe to call exactly
// once per Room.
func (r *Room) Start() {
	r.wg.Add(1)
	go r.runLoop()
}

// Stop signals the tick loop to drain and exit, then waits for it to do so.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	r.wg.Wait()
	if r.EventLog != nil {
		r.EventLog.Stop()
	}
}

func (r *Room) runLoop() {
	defer r.wg.Done()

	interval := time.Duration(float64(time.Second) * r.cfg.World.TickInterval())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	dt := r.cfg.World.TickInterval()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.safeTick(dt)
		}
	}
}

// safeTick runs one tick, recovering from any panic so a single bad tick
// never brings down the room. The tick is simply skipped on panic; the room
// continues ticking on the next interval.
func (r *Room) safeTick(dt float64) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("⚠️ room tick %d panicked, skipping: %v", r.tickNum, rec)
		}
	}()
	r.Tick(dt)
}

// Tick runs the full phase order for one simulation step: apply pending
// inputs, integrate movement, drive bots, run capture and collision
// detection, then project and publish the resulting state. Called by the
// tick loop; exported so tests can drive ticks deterministically without a
// running goroutine.
func (r *Room) Tick(dt float64) {
	start := time.Now()
	r.tickNum++

	r.applyPendingInputs()
	r.world.Integrate(dt)

	for _, bot := range r.bots {
		bot.Update(r.world, dt)
	}

	skipCollision := r.capture.Process(r.world, r.tickNum)
	r.collision.Process(r.world, skipCollision, r.tickNum)

	r.updateLeaderboard()
	r.reapDeadBots(dt)
	r.manageBotPopulation(dt)

	state := r.projection.Project(r.world)
	r.snapshotMu.Lock()
	r.snapshot = state
	r.snapshotMu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordTick(time.Since(start))
		if r.EventLog != nil {
			stats := r.EventLog.GetStats()
			r.metrics.RecordEventLogStats(stats["total"].(uint64), stats["dropped"].(uint64))
		}
	}
}

// updateLeaderboard syncs every live player's current territory area into
// the ranking skip list.
func (r *Room) updateLeaderboard() {
	for _, id := range r.world.Order() {
		p := r.world.Player(id)
		r.Leaderboard.UpdatePlayer(id, float64(p.Score))
	}
}

// TickInterval returns the room's fixed per-tick duration in seconds, for
// callers (tests, the transport layer) that drive ticks manually.
func (r *Room) TickInterval() float64 {
	return r.cfg.World.TickInterval()
}

// Snapshot returns a copy-safe reference to the most recently projected
// room state. The transport layer must treat the returned value as
// immutable; Room never mutates a published RoomState in place.
func (r *Room) Snapshot() RoomState {
	r.snapshotMu.RLock()
	defer r.snapshotMu.RUnlock()
	return r.snapshot
}

// SubmitInput deposits the latest targetAngle for a player. Inputs coalesce:
// if multiple inputs arrive before the next tick, only the most recent
// survives. An unknown player id is dropped silently.
func (r *Room) SubmitInput(playerID string, targetAngle float64) {
	r.inputsMu.Lock()
	r.pendingInputs[playerID] = targetAngle
	r.inputsMu.Unlock()
}

func (r *Room) applyPendingInputs() {
	r.inputsMu.Lock()
	pending := r.pendingInputs
	r.pendingInputs = make(map[string]float64)
	r.inputsMu.Unlock()

	for id, angle := range pending {
		r.world.SetInput(id, angle)
	}
}

// Join admits a human player, placing them at a spawn point found by
// spawnPlacement. Returns the new player's id.
func (r *Room) Join(name string) string {
	return r.join(r.nextID(), name)
}

func (r *Room) join(id, name string) string {
	x, y := r.spawnPlacement()
	color := r.nextColor()
	if name == "" {
		name = id[:minInt(6, len(id))]
	}

	r.world.CreatePlayer(id, name, color, x, y)
	if r.EventLog != nil {
		r.EventLog.EmitSimple(EventTypePlayerJoin, r.tickNum, id, PlayerJoinPayload{
			PlayerID: id, PlayerName: name, SpawnX: x, SpawnY: y, Color: color,
		})
	}
	return id
}

// Leave removes a human player immediately (no death-timer grace, unlike
// bots).
func (r *Room) Leave(id string) {
	r.world.RemovePlayer(id)
	r.projection.Forget(id)
	r.Leaderboard.RemovePlayer(id)
	if r.EventLog != nil {
		r.EventLog.EmitSimple(EventTypePlayerLeave, r.tickNum, id, nil)
	}
}

// HumanCount and BotCount partition the live player set for the bot
// population manager.
func (r *Room) HumanCount() int {
	n := 0
	for _, id := range r.world.Order() {
		if !r.world.Player(id).IsBot() {
			n++
		}
	}
	return n
}

func (r *Room) BotCount() int {
	return len(r.world.Order()) - r.HumanCount()
}

// manageBotPopulation runs roughly every Limits.BotPopulationIntervalMs, spawning bots
// up to TargetTotalPlayers whenever there are too few humans to otherwise
// populate the room.
func (r *Room) manageBotPopulation(dt float64) {
	r.botManagerAccum += dt
	interval := float64(r.cfg.Limits.BotPopulationIntervalMs) / 1000.0
	if r.botManagerAccum < interval {
		return
	}
	r.botManagerAccum -= interval

	humans := r.HumanCount()
	total := humans + r.BotCount()

	if humans < r.cfg.Limits.MinHumansForBots && total < r.cfg.Limits.TargetTotalPlayers {
		for total < r.cfg.Limits.TargetTotalPlayers {
			r.spawnBot()
			total++
		}
	}
}

func (r *Room) spawnBot() {
	r.nextBotSeq++
	id := fmt.Sprintf("%s%d", botIDPrefix, r.nextBotSeq)
	r.join(id, "Bot "+fmt.Sprint(r.nextBotSeq))
	r.bots[id] = NewBotBrain(r.cfg.World, id, r.cfg.Limits.BotDecisionHz, r.rng)
}

// reapDeadBots removes bots whose death timer has exceeded the configured
// grace period. Human disconnects are handled immediately by Leave and
// never pass through here.
func (r *Room) reapDeadBots(dt float64) {
	threshold := float64(r.cfg.Limits.DeadBotRemovalMs) / 1000.0
	for _, id := range append([]string(nil), r.world.Order()...) {
		p := r.world.Player(id)
		if p.IsDead && p.IsBot() && p.DeathTimer > threshold {
			r.world.RemovePlayer(id)
			r.projection.Forget(id)
			r.Leaderboard.RemovePlayer(id)
			delete(r.bots, id)
		}
	}
}

// spawnPlacement finds a point inside the arena that is not inside any live
// territory and not too close to one, falling back to relaxed acceptance
// criteria and finally the arena center if every attempt fails.
func (r *Room) spawnPlacement() (float64, float64) {
	startingRadius := r.cfg.World.StartingTerritorySize/2 + 5

	for attempt := 0; attempt < r.cfg.Limits.MaxSpawnAttempts; attempt++ {
		x, y := r.randomArenaPoint()
		if r.spawnPointOK(x, y, startingRadius, true) {
			return x, y
		}
	}

	// Relaxation fallback: accept any point not inside a live territory,
	// ignoring the minimum-distance buffer.
	for attempt := 0; attempt < r.cfg.Limits.MaxSpawnAttempts; attempt++ {
		x, y := r.randomArenaPoint()
		if r.spawnPointOK(x, y, startingRadius, false) {
			return x, y
		}
	}

	log.Printf("⚠️ spawn placement exhausted %d attempts twice, using arena center", r.cfg.Limits.MaxSpawnAttempts)
	return r.cfg.World.ArenaCenterX, r.cfg.World.ArenaCenterY
}

func (r *Room) randomArenaPoint() (float64, float64) {
	u := r.rng.Float64()
	radius := math.Sqrt(u) * r.cfg.World.ArenaRadius
	theta := r.rng.Float64() * 2 * math.Pi
	x := r.cfg.World.ArenaCenterX + radius*math.Cos(theta)
	y := r.cfg.World.ArenaCenterY + radius*math.Sin(theta)
	return x, y
}

func (r *Room) spawnPointOK(x, y, startingRadius float64, enforceBuffer bool) bool {
	candidate := geometry.Point{X: x, Y: y}
	for _, id := range r.world.Order() {
		p := r.world.Player(id)
		if p.IsDead {
			continue
		}
		if geometry.PointInPolygon(candidate, p.Territory) {
			return false
		}
		if enforceBuffer {
			nearest := p.Territory[geometry.NearestVertexIndex(candidate, p.Territory)]
			if candidate.DistanceTo(nearest) < startingRadius+r.cfg.World.MinSpawnDistance {
				return false
			}
		}
	}
	return true
}

func (r *Room) nextColor() string {
	c := colorPalette[r.nextColorIdx%len(colorPalette)]
	r.nextColorIdx++
	return c
}

func (r *Room) nextID() string {
	return fmt.Sprintf("p%d%d", time.Now().UnixNano()%1_000_000, r.rng.Intn(10000))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
