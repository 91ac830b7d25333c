package game

import (
	"math"
	"strings"

	"paperio/internal/geometry"
)

const botIDPrefix = "BOT_"

// Player is the only mutable entity the simulation tracks. The World owns
// every Player; CaptureEngine, CollisionEngine and BotBrain all borrow them
// for the duration of a tick but never outlive it.
type Player struct {
	ID    string
	Name  string
	Color string

	X, Y         float64
	PrevX, PrevY float64
	Angle        float64 // radians, normalized to (-pi, pi]
	TargetAngle  float64
	Speed        float64

	Territory []geometry.Point // closed polygon, clockwise, >= 3 vertices
	Trail     []geometry.Point // empty while inside territory

	IsOutside     bool
	ExitPoint     geometry.Point
	ExitEdgeIndex int

	IsDead     bool
	DeathTimer float64

	InvulnerableTimer float64
	JustCaptured      bool

	HasWon bool
	Score  int

	TerritoryChanged bool
}

// IsBot reports whether this player is a server-controlled bot, derived from
// the BOT_ ID prefix convention rather than a stored flag.
func (p *Player) IsBot() bool {
	return strings.HasPrefix(p.ID, botIDPrefix)
}

// seedTerritoryVerts is the vertex count of the regular polygon every new
// player spawns with.
const seedTerritoryVerts = 32

// newSeedTerritory builds a regular polygon of seedTerritoryVerts vertices,
// radius r, centered at (cx, cy). The vertices are generated by increasing
// angle, which SignedArea reports as negative, so EnsureClockwise reverses
// them into the positive (clockwise) winding the capture code works in.
func newSeedTerritory(cx, cy, r float64) []geometry.Point {
	verts := make([]geometry.Point, seedTerritoryVerts)
	for i := 0; i < seedTerritoryVerts; i++ {
		theta := 2 * math.Pi * float64(i) / float64(seedTerritoryVerts)
		verts[i] = geometry.Point{
			X: cx + r*math.Cos(theta),
			Y: cy + r*math.Sin(theta),
		}
	}
	return geometry.EnsureClockwise(verts)
}

// newPlayer builds a Player with a freshly seeded territory. Speed starts at
// zero so the player does not drift before the transport layer forwards a
// first Input.
func newPlayer(id, name, color string, x, y, startingTerritorySize float64) *Player {
	radius := startingTerritorySize/2 + 5
	territory := newSeedTerritory(x, y, radius)

	p := &Player{
		ID:        id,
		Name:      name,
		Color:     color,
		X:         x,
		Y:         y,
		PrevX:     x,
		PrevY:     y,
		Territory: territory,
		Score:     int(math.Floor(geometry.Area(territory))),
	}
	return p
}

// normalizeAngle wraps a into (-pi, pi].
func normalizeAngle(a float64) float64 {
	wrapped := math.Atan2(math.Sin(a), math.Cos(a))
	if wrapped == -math.Pi {
		return math.Pi
	}
	return wrapped
}
