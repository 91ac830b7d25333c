package game

import (
	"math"
	"testing"

	"paperio/internal/geometry"
)

func TestNewPlayerSeedTerritory(t *testing.T) {
	p := newPlayer("p1", "Alice", "red", 1000, 1000, 300)

	if len(p.Territory) != seedTerritoryVerts {
		t.Fatalf("expected %d seed vertices, got %d", seedTerritoryVerts, len(p.Territory))
	}
	if p.Speed != 0 {
		t.Errorf("expected speed 0 before first input, got %v", p.Speed)
	}
	if p.Score != int(math.Floor(geometry.Area(p.Territory))) {
		t.Errorf("score should equal floor(area), got score=%d area=%v", p.Score, geometry.Area(p.Territory))
	}
	if geometry.SignedArea(p.Territory) < 0 {
		t.Error("seed territory should be clockwise")
	}
}

func TestIsBotPrefix(t *testing.T) {
	bot := &Player{ID: "BOT_7"}
	human := &Player{ID: "abc123"}

	if !bot.IsBot() {
		t.Error("expected BOT_7 to be recognized as a bot")
	}
	if human.IsBot() {
		t.Error("expected abc123 to not be recognized as a bot")
	}
}

func TestNormalizeAngleRange(t *testing.T) {
	cases := []float64{0, math.Pi, -math.Pi, 3 * math.Pi, -3 * math.Pi, 0.0001}
	for _, a := range cases {
		n := normalizeAngle(a)
		if n <= -math.Pi || n > math.Pi {
			t.Errorf("normalizeAngle(%v) = %v, want value in (-pi, pi]", a, n)
		}
	}
}
