package game

import (
	"testing"

	"paperio/internal/config"
	"paperio/internal/geometry"
)

func testCollisionSetup() (*World, *CollisionEngine) {
	cfg := config.DefaultWorld()
	w := NewWorld(cfg)
	ce := NewCollisionEngine(cfg, 100, nil)
	return w, ce
}

func TestCollisionEngineForeignTrailKillsVictim(t *testing.T) {
	w, ce := testCollisionSetup()
	w.CreatePlayer("victim", "V", "red", 1000, 1000)
	w.CreatePlayer("attacker", "A", "blue", 2000, 1000)

	victim := w.Player("victim")
	victim.IsOutside = true
	victim.Trail = []geometry.Point{{X: 1000, Y: 900}, {X: 1000, Y: 1100}}

	attacker := w.Player("attacker")
	attacker.PrevX, attacker.PrevY = 900, 1000
	attacker.X, attacker.Y = 1100, 1000

	ce.Process(w, map[string]bool{}, 1)

	if !victim.IsDead {
		t.Error("expected the victim (trail owner) to die, not the attacker")
	}
	if attacker.IsDead {
		t.Error("the attacker should not die from crossing a foreign trail")
	}
}

func TestCollisionEngineSelfTrailKillsSelf(t *testing.T) {
	w, ce := testCollisionSetup()
	w.CreatePlayer("p1", "Alice", "red", 1000, 1000)
	p := w.Player("p1")

	p.IsOutside = true
	p.Trail = make([]geometry.Point, 0, 40)
	for i := 0; i < 40; i++ {
		p.Trail = append(p.Trail, geometry.Point{X: 1200 + float64(i)*10, Y: 900})
	}
	p.ExitPoint = geometry.Point{X: 1200, Y: 900}

	// Cross trail segment 10 ((1300,900)-(1310,900)): 30 segments behind the
	// head, so past the debounce buffer; the end point (1305,950) lies outside
	// the seed territory and about 116 units from the exit point, so neither
	// self-collision exemption applies.
	p.PrevX, p.PrevY = 1305, 850
	p.X, p.Y = 1305, 950

	ce.Process(w, map[string]bool{}, 1)

	if !p.IsDead {
		t.Error("expected player to die from crossing their own old trail")
	}
}

func TestCollisionEngineSkipsWhenInsideOwnTerritory(t *testing.T) {
	w, ce := testCollisionSetup()
	w.CreatePlayer("p1", "Alice", "red", 1000, 1000)
	p := w.Player("p1")
	// Not outside, not near any trail: should never be killed.
	p.PrevX, p.PrevY = 995, 995
	p.X, p.Y = 1005, 1005

	ce.Process(w, map[string]bool{}, 1)

	if p.IsDead {
		t.Error("a player moving entirely within their own territory should not die")
	}
}

func TestCollisionEngineRespectsSkipCollisionSet(t *testing.T) {
	w, ce := testCollisionSetup()
	w.CreatePlayer("victim", "V", "red", 1000, 1000)
	w.CreatePlayer("attacker", "A", "blue", 2000, 1000)

	victim := w.Player("victim")
	victim.IsOutside = true
	victim.Trail = []geometry.Point{{X: 1000, Y: 900}, {X: 1000, Y: 1100}}

	attacker := w.Player("attacker")
	attacker.PrevX, attacker.PrevY = 900, 1000
	attacker.X, attacker.Y = 1100, 1000

	ce.Process(w, map[string]bool{"attacker": true}, 1)

	if victim.IsDead {
		t.Error("expected the exempted attacker's crossing to not be evaluated")
	}
}
