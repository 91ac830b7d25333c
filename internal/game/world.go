package game

import (
	"math"

	"paperio/internal/config"
	"paperio/internal/geometry"
)

// World owns every live Player and is the only component permitted to
// mutate position, heading, and trail geometry. CaptureEngine and
// CollisionEngine run after World.Integrate within the same tick and may
// mutate territory/trail/death state, but never position or heading.
type World struct {
	cfg config.WorldConfig

	players  map[string]*Player
	order    []string // insertion order, for deterministic iteration
}

// NewWorld builds an empty World bound to the given configuration.
func NewWorld(cfg config.WorldConfig) *World {
	return &World{
		cfg:     cfg,
		players: make(map[string]*Player),
	}
}

// Order returns player IDs in insertion order. CaptureEngine and
// CollisionEngine iterate in this order so that concurrent kills within a
// tick are resolved deterministically.
func (w *World) Order() []string {
	return w.order
}

// Player returns the live player with the given id, or nil.
func (w *World) Player(id string) *Player {
	return w.players[id]
}

// Players exposes the backing map for read-only iteration by other
// components in the same package.
func (w *World) Players() map[string]*Player {
	return w.players
}

// CreatePlayer builds a new player with a 32-gon seed territory centered at
// (x, y) and adds it to the world.
func (w *World) CreatePlayer(id, name, color string, x, y float64) *Player {
	p := newPlayer(id, name, color, x, y, w.cfg.StartingTerritorySize)
	w.players[id] = p
	w.order = append(w.order, id)
	return p
}

// RemovePlayer deletes a player entirely (used for human disconnects and for
// bots whose death timer has elapsed).
func (w *World) RemovePlayer(id string) {
	if _, ok := w.players[id]; !ok {
		return
	}
	delete(w.players, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// SetInput updates a player's desired heading. The first input a player ever
// supplies also kicks their speed up from 0 to PlayerSpeed. A no-op on dead
// players.
func (w *World) SetInput(id string, targetAngle float64) {
	p, ok := w.players[id]
	if !ok || p.IsDead {
		return
	}
	p.TargetAngle = targetAngle
	if p.Speed == 0 {
		p.Speed = w.cfg.PlayerSpeed
	}
}

// Integrate advances every live player by dt seconds: steering, movement,
// arena clamping, and trail extension. Dead players only advance their death
// timer.
func (w *World) Integrate(dt float64) {
	for _, id := range w.order {
		p := w.players[id]
		if p.IsDead {
			p.DeathTimer += dt
			continue
		}

		p.Angle = normalizeAngle(p.Angle)
		angleDiff := normalizeAngle(p.TargetAngle - p.Angle)
		p.Angle = normalizeAngle(p.Angle + angleDiff*w.cfg.PlayerTurnSpeed*dt)

		p.PrevX, p.PrevY = p.X, p.Y
		p.X += math.Cos(p.Angle) * p.Speed * dt
		p.Y += math.Sin(p.Angle) * p.Speed * dt

		w.clampToArena(p)

		if p.IsOutside {
			w.extendTrail(p)
		}

		if p.InvulnerableTimer > 0 {
			p.InvulnerableTimer -= dt
		}
	}
}

// clampToArena pulls a player back onto the arena boundary if their movement
// this tick pushed them past arenaRadius - 1.0.
func (w *World) clampToArena(p *Player) {
	dx := p.X - w.cfg.ArenaCenterX
	dy := p.Y - w.cfg.ArenaCenterY
	dist := math.Hypot(dx, dy)

	limit := w.cfg.ArenaRadius - 1.0
	if dist <= limit {
		return
	}
	if dist == 0 {
		return
	}

	scale := limit / dist
	p.X = w.cfg.ArenaCenterX + dx*scale
	p.Y = w.cfg.ArenaCenterY + dy*scale
}

// extendTrail appends the player's current position to their trail if it is
// at least TrailPointDistance away from the last recorded point. The first
// trail point is always the exit point itself, appended by CaptureEngine at
// the moment of exit.
func (w *World) extendTrail(p *Player) {
	if len(p.Trail) == 0 {
		return
	}
	last := p.Trail[len(p.Trail)-1]
	here := geometry.Point{X: p.X, Y: p.Y}
	if last.DistanceTo(here) >= w.cfg.TrailPointDistance {
		p.Trail = append(p.Trail, here)
	}
}
