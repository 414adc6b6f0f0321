package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		xp    int
		level int
	}{
		{0, 1},
		{50, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{899, 3},
		{900, 4},
		{10000, 11},
		{-10, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, Level(tt.xp), "Level(%d)", tt.xp)
	}
}

func TestLevelMonotonic(t *testing.T) {
	prev := Level(0)
	for xp := 1; xp <= 5000; xp++ {
		lvl := Level(xp)
		if lvl < prev {
			t.Fatalf("Level decreased at xp=%d: %d -> %d", xp, prev, lvl)
		}
		prev = lvl
	}
}

func TestXPFloorInvertsLevel(t *testing.T) {
	for lvl := 1; lvl <= 20; lvl++ {
		floor := XPFloor(lvl)
		assert.Equal(t, lvl, Level(floor), "level at its own floor")
		if floor > 0 {
			assert.Equal(t, lvl-1, Level(floor-1), "one XP below the floor")
		}
	}
}

func TestProgressPercentBounds(t *testing.T) {
	for xp := 0; xp <= 2000; xp += 7 {
		pct := ProgressPercent(xp)
		if pct < 0 || pct > 100 {
			t.Fatalf("ProgressPercent(%d) = %d, out of [0, 100]", xp, pct)
		}
	}

	assert.Equal(t, 0, ProgressPercent(0))
	assert.Equal(t, 0, ProgressPercent(100), "fresh level starts at 0%")
	assert.Equal(t, 50, ProgressPercent(50))
}

func TestLevelInfoFor(t *testing.T) {
	info := LevelInfoFor(150)

	assert.Equal(t, 2, info.Level)
	assert.Equal(t, 100, info.LevelFloor)
	assert.Equal(t, 50, info.ProgressInLevel)
	assert.Equal(t, 250, info.XPForNext)
	assert.Equal(t, 16, info.ProgressPercent)
}
