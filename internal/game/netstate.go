package game

import "paperio/internal/geometry"

// PlayerState is the outbound, wire-shaped projection of a single Player.
// Territory and Trail are flattened as [x0,y0,x1,y1,...] to keep the
// encoding a plain numeric array, matching the external PlayerState shape.
type PlayerState struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`

	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`

	IsDead bool `json:"isDead"`
	HasWon bool `json:"hasWon"`
	Score  int  `json:"score"`

	Territory []float64 `json:"territory"`
	Trail     []float64 `json:"trail"`

	// TerritoryResync/TrailResync hint that the corresponding flat array's
	// length changed since the last projection (or, for Territory, that a
	// capture committed this tick) and should be re-sent in full rather than
	// diffed incrementally by the transport layer.
	TerritoryResync bool `json:"territoryResync"`
	TrailResync     bool `json:"trailResync"`
}

// RoomState is the outbound projection of an entire room: every live
// player's PlayerState keyed by ID.
type RoomState struct {
	Players map[string]PlayerState `json:"players"`
}

// NetStateProjection converts World snapshots into the flat numeric
// encoding the transport layer broadcasts. It is a one-way, idempotent
// function of Player except for the small amount of per-player bookkeeping
// it needs to compute resync hints (prior flat-array lengths, and clearing
// each player's TerritoryChanged flag once it has been reported); the
// transport layer is responsible for diffing projections against its own
// per-client baseline.
type NetStateProjection struct {
	lastTerritoryLen map[string]int
	lastTrailLen     map[string]int
}

// NewNetStateProjection builds an empty projection.
func NewNetStateProjection() *NetStateProjection {
	return &NetStateProjection{
		lastTerritoryLen: make(map[string]int),
		lastTrailLen:     make(map[string]int),
	}
}

// Forget drops a removed player's tracked array lengths so they don't leak
// across the lifetime of a long-running room.
func (np *NetStateProjection) Forget(id string) {
	delete(np.lastTerritoryLen, id)
	delete(np.lastTrailLen, id)
}

// Project builds a RoomState from the current contents of w. Players still
// marked IsDead are included (the client renders death state), but they are
// dropped from the room once World.RemovePlayer has been called.
func (np *NetStateProjection) Project(w *World) RoomState {
	players := make(map[string]PlayerState, len(w.Order()))

	for _, id := range w.Order() {
		p := w.Player(id)

		flatTerritory := flattenPoints(p.Territory)
		flatTrail := flattenPoints(p.Trail)

		territoryResync := len(flatTerritory) != np.lastTerritoryLen[id] || p.TerritoryChanged
		trailResync := len(flatTrail) != np.lastTrailLen[id]

		np.lastTerritoryLen[id] = len(flatTerritory)
		np.lastTrailLen[id] = len(flatTrail)
		p.TerritoryChanged = false

		players[id] = PlayerState{
			ID:              p.ID,
			Name:            p.Name,
			Color:           p.Color,
			X:               p.X,
			Y:               p.Y,
			Angle:           p.Angle,
			IsDead:          p.IsDead,
			HasWon:          p.HasWon,
			Score:           p.Score,
			Territory:       flatTerritory,
			Trail:           flatTrail,
			TerritoryResync: territoryResync,
			TrailResync:     trailResync,
		}
	}

	return RoomState{Players: players}
}

func flattenPoints(pts []geometry.Point) []float64 {
	flat := make([]float64, 0, len(pts)*2)
	for _, p := range pts {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}
