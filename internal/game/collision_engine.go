package game

import (
	"paperio/internal/config"
	"paperio/internal/game/spatial"
	"paperio/internal/geometry"
)

const (
	selfCollisionExitGrace  = 100 // units within exitPoint where self-trail hits are ignored
	selfCollisionHeadBuffer = 20  // trailing segments ignored to tolerate sharp turns
)

// CollisionEngine re-populates the SpatialHash each tick and kills any
// player whose movement this tick crossed a trail segment. Foreign-trail
// crossings kill the *owner* of the crossed trail, not the player who cut
// it; self-trail crossings kill the crosser, subject to a debounce window
// near the exit point and the trailing "attached to the body" segments.
type CollisionEngine struct {
	cfg     config.WorldConfig
	hash    *spatial.SpatialHash
	log     *EventLog
	metrics MetricsHook
}

// NewCollisionEngine builds a CollisionEngine with its own SpatialHash sized
// to the world bounds and cell size.
func NewCollisionEngine(cfg config.WorldConfig, cellSize float64, log *EventLog) *CollisionEngine {
	return &CollisionEngine{
		cfg:  cfg,
		hash: spatial.NewSpatialHash(0, 0, cfg.Width, cfg.Height, cellSize),
		log:  log,
	}
}

// Process indexes every live player's trail and territory edges, then checks
// each live, non-exempt player's movement this tick against the index.
// skipCollision names players CaptureEngine has already exempted for this
// tick (just captured, or already victorious). The set of players to check
// is fixed before any kill, so a player killed earlier in the pass still has
// their own movement checked and two players can cut each other in one tick.
func (c *CollisionEngine) Process(w *World, skipCollision map[string]bool, tickNum uint64) {
	c.hash.Clear()
	c.indexPlayers(w)

	var toCheck []*Player
	for _, id := range w.Order() {
		p := w.Player(id)
		if p.IsDead || p.HasWon || skipCollision[id] {
			continue
		}
		toCheck = append(toCheck, p)
	}
	for _, p := range toCheck {
		c.checkPlayer(w, p, tickNum)
	}
}

func (c *CollisionEngine) indexPlayers(w *World) {
	for _, id := range w.Order() {
		p := w.Player(id)
		if p.IsDead {
			continue
		}

		for i := 0; i+1 < len(p.Trail); i++ {
			a, b := p.Trail[i], p.Trail[i+1]
			c.hash.Insert(spatial.Item{Kind: spatial.KindTrail, PlayerID: p.ID, Index: i}, a.X, a.Y, b.X, b.Y)
		}

		n := len(p.Territory)
		for i := 0; i < n; i++ {
			a, b := p.Territory[i], p.Territory[(i+1)%n]
			c.hash.Insert(spatial.Item{Kind: spatial.KindTerritory, PlayerID: p.ID, Index: i}, a.X, a.Y, b.X, b.Y)
		}
	}
}

func (c *CollisionEngine) checkPlayer(w *World, p *Player, tickNum uint64) {
	prev := geometry.Point{X: p.PrevX, Y: p.PrevY}
	curr := geometry.Point{X: p.X, Y: p.Y}
	currentHead := len(p.Trail)

	isInsideOwnTerritory := geometry.PointInPolygon(curr, p.Territory)
	nearOwnExit := p.IsOutside && curr.DistanceTo(p.ExitPoint) < selfCollisionExitGrace

	for _, item := range c.hash.Query(p.X, p.Y) {
		if item.Kind != spatial.KindTrail {
			continue
		}

		a := geometry.Point{X: item.P1.X, Y: item.P1.Y}
		b := geometry.Point{X: item.P2.X, Y: item.P2.Y}

		if item.PlayerID != p.ID {
			if _, hit := geometry.SegmentIntersect(prev, curr, a, b); hit {
				c.kill(w, item.PlayerID, p.ID, "foreign_trail", tickNum)
			}
			continue
		}

		// Self-trail: skip near-exit loop closures and the segments still
		// "attached to the body".
		if isInsideOwnTerritory || nearOwnExit {
			continue
		}
		if currentHead-item.Index <= selfCollisionHeadBuffer {
			continue
		}
		if _, hit := geometry.SegmentIntersect(prev, curr, a, b); hit {
			c.kill(w, p.ID, p.ID, "self_trail", tickNum)
		}
	}
}

func (c *CollisionEngine) kill(w *World, victimID, attackerID, cause string, tickNum uint64) {
	p := w.Player(victimID)
	if p == nil || p.IsDead {
		return
	}
	p.IsDead = true
	p.Trail = nil
	p.DeathTimer = 0
	p.IsOutside = false

	if c.log != nil {
		c.log.EmitSimple(EventTypeKill, tickNum, victimID, KillPayload{
			AttackerID: attackerID,
			VictimID:   victimID,
			SelfKill:   cause == "self_trail",
		})
	}
	if c.metrics != nil {
		c.metrics.RecordKill(cause)
	}
}
