package game

import (
	"math"
	"math/rand"

	"paperio/internal/config"
	"paperio/internal/geometry"
)

const (
	botRetreatMargin       = 300 // steer toward center within this distance of the boundary
	botReturningTrailLen   = 40  // trail length that triggers "returning to territory" mode
	botHeadingSpreadRadians = math.Pi / 3 // +/- 60 degrees
	botCooldownMin         = 0.5
	botCooldownMax         = 2.5
)

// BotBrain drives one bot player with a throttled heuristic: it writes
// inputs through World.SetInput exactly as a remote client would, with no
// privileged access to engine internals.
type BotBrain struct {
	cfg          config.WorldConfig
	playerID     string
	rng          *rand.Rand
	accumulator  float64
	decisionRate float64 // Hz

	returning    bool
	cooldown     float64
}

// NewBotBrain builds a BotBrain for the given bot player ID.
func NewBotBrain(cfg config.WorldConfig, playerID string, decisionHz float64, rng *rand.Rand) *BotBrain {
	return &BotBrain{
		cfg:          cfg,
		playerID:     playerID,
		rng:          rng,
		decisionRate: decisionHz,
	}
}

// Update advances the bot's internal clock by dt and, once the decision
// interval has elapsed, issues at most one SetInput call.
func (b *BotBrain) Update(w *World, dt float64) {
	p := w.Player(b.playerID)
	if p == nil || p.IsDead {
		return
	}

	b.accumulator += dt
	interval := 1.0 / b.decisionRate
	if b.accumulator < interval {
		return
	}
	b.accumulator -= interval

	b.decide(w, p, interval)
}

func (b *BotBrain) decide(w *World, p *Player, dt float64) {
	distFromCenter := math.Hypot(p.X-b.cfg.ArenaCenterX, p.Y-b.cfg.ArenaCenterY)

	if distFromCenter > b.cfg.ArenaRadius-botRetreatMargin {
		toCenter := math.Atan2(b.cfg.ArenaCenterY-p.Y, b.cfg.ArenaCenterX-p.X)
		w.SetInput(p.ID, toCenter)
		return
	}

	if len(p.Trail) > botReturningTrailLen && p.IsOutside {
		b.returning = true
	}
	if !p.IsOutside {
		b.returning = false
	}

	if b.returning {
		cx, cy := centroid(p.Territory)
		toCentroid := math.Atan2(cy-p.Y, cx-p.X)
		w.SetInput(p.ID, toCentroid)
		return
	}

	b.cooldown -= dt
	if b.cooldown > 0 {
		return
	}
	b.cooldown = botCooldownMin + b.rng.Float64()*(botCooldownMax-botCooldownMin)

	spread := (b.rng.Float64()*2 - 1) * botHeadingSpreadRadians
	w.SetInput(p.ID, p.Angle+spread)
}

// centroid returns the arithmetic mean of a polygon's vertices.
func centroid(poly []geometry.Point) (float64, float64) {
	if len(poly) == 0 {
		return 0, 0
	}
	var sx, sy float64
	for _, v := range poly {
		sx += v.X
		sy += v.Y
	}
	n := float64(len(poly))
	return sx / n, sy / n
}
