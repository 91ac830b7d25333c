package game

import (
	"log"
	"math"

	"paperio/internal/config"
	"paperio/internal/geometry"
)

const (
	captureInvulnerabilityDuration = 0.5 // seconds of grace after a successful capture
	loopCloseRadius                = 80  // distance to exitPoint that counts as a loop closure
	minTrailLenForEntry             = 2   // debounce: require trail.length > this before accepting an entry
	minTrailLenForLoopClose         = 10  // debounce: require trail.length > this before considering loop closure
	simplifyToleranceBase           = 1.0
	simplifyToleranceEscalated      = 2.0
	maxTerritoryVertsBeforeEscalate = 400
	minTerritoryVerts               = 4
	minTerritoryArea                = 100.0
)

// CaptureEngine is the hardest subsystem: it turns a player's exit from and
// re-entry into their own territory into a capture of everything the trail
// enclosed. It runs once per tick, after World.Integrate and before
// CollisionEngine.
type CaptureEngine struct {
	cfg     config.WorldConfig
	log     *EventLog
	metrics MetricsHook
}

// NewCaptureEngine builds a CaptureEngine bound to the given world
// configuration. log may be nil, in which case events are simply not
// recorded.
func NewCaptureEngine(cfg config.WorldConfig, log *EventLog) *CaptureEngine {
	return &CaptureEngine{cfg: cfg, log: log}
}

// winThreshold is the territory area, in world units squared, that latches
// victory: 99% of the arena's total area.
func (c *CaptureEngine) winThreshold() float64 {
	return 0.99 * math.Pi * c.cfg.ArenaRadius * c.cfg.ArenaRadius
}

// Process runs the exit/entry/loop-closure/victory state machine for every
// live player in world order. It returns the set of player IDs for which
// collision detection should be skipped this tick (just captured, or
// already victorious).
func (c *CaptureEngine) Process(w *World, tickNum uint64) map[string]bool {
	skipCollision := make(map[string]bool)

	for _, id := range w.Order() {
		p := w.Player(id)
		if p.IsDead {
			continue
		}
		p.JustCaptured = false
		p.TerritoryChanged = false

		curr := geometry.Point{X: p.X, Y: p.Y}
		prev := geometry.Point{X: p.PrevX, Y: p.PrevY}
		isInside := geometry.PointInPolygon(curr, p.Territory)

		switch {
		case !p.IsOutside && !isInside && p.InvulnerableTimer <= 0:
			c.handleExit(p, prev, curr, tickNum)

		case p.IsOutside && isInside:
			c.handleEntry(p, prev, curr, tickNum)

		case p.IsOutside && !isInside && len(p.Trail) > minTrailLenForLoopClose:
			c.handleLoopClose(p, curr, tickNum)
		}

		if p.HasWon || float64(p.Score) >= c.winThreshold() {
			c.latchVictory(p, tickNum)
		}

		if p.HasWon || p.JustCaptured {
			skipCollision[id] = true
		}
	}

	return skipCollision
}

func (c *CaptureEngine) handleExit(p *Player, prev, curr geometry.Point, tickNum uint64) {
	hit, ok := geometry.FindBoundaryIntersection(prev, curr, p.Territory)
	if !ok {
		// Numerical jump: force-exit at prev on edge 0 rather than drop the
		// transition entirely.
		hit = geometry.BoundaryHit{Point: prev, Edge: 0}
	}

	p.IsOutside = true
	p.ExitPoint = hit.Point
	p.ExitEdgeIndex = hit.Edge
	p.Trail = []geometry.Point{hit.Point}

	c.emit(EventTypeExit, tickNum, p.ID, ExitPayload{
		PlayerID: p.ID,
		ExitX:    hit.Point.X,
		ExitY:    hit.Point.Y,
		EdgeIdx:  hit.Edge,
	})
}

func (c *CaptureEngine) handleEntry(p *Player, prev, curr geometry.Point, tickNum uint64) {
	hit, ok := geometry.FindBoundaryIntersection(prev, curr, p.Territory)
	tunneled := false
	if !ok {
		tunneled = true
		hit = geometry.BoundaryHit{
			Point: curr,
			Edge:  geometry.NearestVertexIndex(curr, p.Territory),
		}
	}

	if len(p.Trail) > minTrailLenForEntry {
		c.attemptCapture(p, p.Trail, p.ExitPoint, p.ExitEdgeIndex, hit.Point, hit.Edge, false, tickNum)
		c.emit(EventTypeEntry, tickNum, p.ID, EntryPayload{PlayerID: p.ID, EdgeIdx: hit.Edge, Tunneled: tunneled})
	}

	p.Trail = nil
	p.IsOutside = false
	p.ExitPoint = geometry.Point{}
}

func (c *CaptureEngine) handleLoopClose(p *Player, curr geometry.Point, tickNum uint64) {
	if curr.DistanceTo(p.ExitPoint) >= loopCloseRadius {
		return
	}

	c.attemptCapture(p, p.Trail, p.ExitPoint, p.ExitEdgeIndex, p.ExitPoint, p.ExitEdgeIndex, true, tickNum)
	c.emit(EventTypeLoopClose, tickNum, p.ID, EntryPayload{PlayerID: p.ID, EdgeIdx: p.ExitEdgeIndex})

	p.Trail = nil
	p.IsOutside = false
	p.ExitPoint = geometry.Point{}
}

// attemptCapture builds the candidate polygon, validates and simplifies it,
// and commits it onto p.Territory if (and only if) it passes validation.
// requireStrictGrowth is set for loop closures, which must strictly enlarge
// the territory to be accepted (otherwise a player could "capture" by doing
// nothing and closing the loop at the exit point).
func (c *CaptureEngine) attemptCapture(p *Player, trail []geometry.Point, exitPt geometry.Point, exitEdge int, entryPt geometry.Point, entryEdge int, requireStrictGrowth bool, tickNum uint64) {
	capture := geometry.ComputeCapture(p.Territory, trail, exitPt, exitEdge, entryPt, entryEdge)

	newTerritory := geometry.SimplifyPolygon(capture, simplifyToleranceBase)
	if len(newTerritory) > maxTerritoryVertsBeforeEscalate {
		newTerritory = geometry.SimplifyPolygon(capture, simplifyToleranceEscalated)
	}
	newTerritory = geometry.EnsureClockwise(newTerritory)

	if !geometry.IsValidTerritory(newTerritory, minTerritoryVerts, minTerritoryArea) {
		log.Printf("⚠️ capture rejected for %s: invalid territory (%d verts)", p.ID, len(newTerritory))
		return
	}

	newArea := geometry.Area(newTerritory)
	if requireStrictGrowth && newArea <= geometry.Area(p.Territory) {
		return
	}

	previousArea := geometry.Area(p.Territory)
	p.Territory = newTerritory
	p.Score = int(math.Floor(newArea))
	p.TerritoryChanged = true
	p.InvulnerableTimer = captureInvulnerabilityDuration
	p.JustCaptured = true

	c.emit(EventTypeCapture, tickNum, p.ID, CapturePayload{
		PlayerID:       p.ID,
		PreviousArea:   previousArea,
		NewArea:        newArea,
		TerritoryVerts: len(newTerritory),
	})
	if c.metrics != nil {
		c.metrics.RecordCapture()
	}
}

func (c *CaptureEngine) latchVictory(p *Player, tickNum uint64) {
	alreadyWon := p.HasWon
	p.HasWon = true
	p.IsOutside = false
	p.Trail = nil
	if !alreadyWon {
		c.emit(EventTypeVictory, tickNum, p.ID, VictoryPayload{PlayerID: p.ID, Score: float64(p.Score)})
		if c.metrics != nil {
			c.metrics.RecordVictory()
		}
	}
}

func (c *CaptureEngine) emit(t EventType, tickNum uint64, playerID string, payload interface{}) {
	if c.log == nil {
		return
	}
	c.log.EmitSimple(t, tickNum, playerID, payload)
}
