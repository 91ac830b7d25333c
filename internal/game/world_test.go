package game

import (
	"math"
	"testing"

	"paperio/internal/config"
	"paperio/internal/geometry"
)

func testWorld() *World {
	return NewWorld(config.DefaultWorld())
}

func TestCreateAndRemovePlayer(t *testing.T) {
	w := testWorld()
	w.CreatePlayer("p1", "Alice", "red", 1000, 1000)

	if w.Player("p1") == nil {
		t.Fatal("expected player p1 to exist")
	}
	if len(w.Order()) != 1 {
		t.Fatalf("expected 1 player in order, got %d", len(w.Order()))
	}

	w.RemovePlayer("p1")
	if w.Player("p1") != nil {
		t.Error("expected player p1 to be removed")
	}
	if len(w.Order()) != 0 {
		t.Errorf("expected empty order after removal, got %d", len(w.Order()))
	}
}

func TestSetInputStartsMovement(t *testing.T) {
	w := testWorld()
	w.CreatePlayer("p1", "Alice", "red", 1000, 1000)

	w.SetInput("p1", math.Pi/2)
	p := w.Player("p1")
	if p.Speed != w.cfg.PlayerSpeed {
		t.Errorf("expected speed to become PlayerSpeed after first input, got %v", p.Speed)
	}
	if p.TargetAngle != math.Pi/2 {
		t.Errorf("expected target angle pi/2, got %v", p.TargetAngle)
	}
}

func TestSetInputNoOpOnDeadPlayer(t *testing.T) {
	w := testWorld()
	w.CreatePlayer("p1", "Alice", "red", 1000, 1000)
	w.Player("p1").IsDead = true

	w.SetInput("p1", 1.0)
	if w.Player("p1").Speed != 0 {
		t.Error("expected SetInput to be a no-op on a dead player")
	}
}

func TestIntegrateMovesPlayerTowardTarget(t *testing.T) {
	w := testWorld()
	w.CreatePlayer("p1", "Alice", "red", 1000, 1000)
	w.SetInput("p1", 0) // face along +x

	for i := 0; i < 10; i++ {
		w.Integrate(1.0 / 60.0)
	}

	p := w.Player("p1")
	if p.X <= 1000 {
		t.Errorf("expected player to move in +x direction, got x=%v", p.X)
	}
}

func TestIntegrateDeadPlayerOnlyAdvancesTimer(t *testing.T) {
	w := testWorld()
	w.CreatePlayer("p1", "Alice", "red", 1000, 1000)
	p := w.Player("p1")
	p.IsDead = true
	startX := p.X

	w.Integrate(1.0 / 60.0)

	if p.X != startX {
		t.Error("dead player should not move")
	}
	if p.DeathTimer <= 0 {
		t.Error("expected death timer to advance")
	}
}

func TestIntegrateClampsToArena(t *testing.T) {
	w := testWorld()
	w.CreatePlayer("p1", "Alice", "red", w.cfg.ArenaCenterX, w.cfg.ArenaCenterY)
	p := w.Player("p1")
	p.Speed = w.cfg.PlayerSpeed
	p.Angle = 0
	p.TargetAngle = 0

	for i := 0; i < 10000; i++ {
		w.Integrate(1.0 / 60.0)
	}

	dist := math.Hypot(p.X-w.cfg.ArenaCenterX, p.Y-w.cfg.ArenaCenterY)
	if dist > w.cfg.ArenaRadius {
		t.Errorf("player escaped the arena: distance %v > radius %v", dist, w.cfg.ArenaRadius)
	}
}

func TestExtendTrailRespectsMinimumSpacing(t *testing.T) {
	w := testWorld()
	w.CreatePlayer("p1", "Alice", "red", 1000, 1000)
	p := w.Player("p1")
	p.IsOutside = true
	p.Trail = []geometry.Point{{X: 1000, Y: 1000}}
	p.Speed = w.cfg.PlayerSpeed
	p.Angle = 0
	p.TargetAngle = 0

	w.Integrate(1.0 / 1000.0) // tiny step, should not add a new trail point
	if len(p.Trail) != 1 {
		t.Errorf("expected trail to stay at 1 point after a sub-threshold step, got %d", len(p.Trail))
	}

	for i := 0; i < 60; i++ {
		w.Integrate(1.0 / 60.0)
	}
	if len(p.Trail) <= 1 {
		t.Error("expected trail to grow after sustained movement")
	}
}
