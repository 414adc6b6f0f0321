// services/leveling.go - Pure level math.
//
// Progression is quadratic: level n starts at (n-1)^2 * 100 XP, so
// level(xp) = floor(sqrt(xp/100)) + 1. 0 XP is level 1; the function is
// total and monotonic.
package services

import "math"

// Level maps cumulative XP to a level number.
func Level(xpTotal int) int {
	if xpTotal < 0 {
		xpTotal = 0
	}
	return int(math.Sqrt(float64(xpTotal)/100.0)) + 1
}

// XPFloor returns the cumulative XP at which a level begins.
func XPFloor(level int) int {
	if level < 1 {
		level = 1
	}
	return (level - 1) * (level - 1) * 100
}

// ProgressInLevel returns XP earned since the current level began.
func ProgressInLevel(xpTotal int) int {
	return xpTotal - XPFloor(Level(xpTotal))
}

// XPForNext returns XP still needed to reach the next level.
func XPForNext(xpTotal int) int {
	return XPFloor(Level(xpTotal)+1) - xpTotal
}

// ProgressPercent returns progress through the current level, clamped to
// [0, 100]. Clamping is the one canonical policy; every consumer reports
// this value, never its own variant.
func ProgressPercent(xpTotal int) int {
	lvl := Level(xpTotal)
	span := XPFloor(lvl+1) - XPFloor(lvl)
	if span <= 0 {
		return 0
	}
	pct := ProgressInLevel(xpTotal) * 100 / span
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// LevelInfo bundles everything a progress view needs.
type LevelInfo struct {
	Level           int `json:"level"`
	XPTotal         int `json:"xp_total"`
	LevelFloor      int `json:"level_floor"`
	ProgressInLevel int `json:"progress_in_level"`
	XPForNext       int `json:"xp_for_next"`
	ProgressPercent int `json:"progress_percent"`
}

// LevelInfoFor computes the full progress view for a cumulative XP total.
func LevelInfoFor(xpTotal int) LevelInfo {
	if xpTotal < 0 {
		xpTotal = 0
	}
	return LevelInfo{
		Level:           Level(xpTotal),
		XPTotal:         xpTotal,
		LevelFloor:      XPFloor(Level(xpTotal)),
		ProgressInLevel: ProgressInLevel(xpTotal),
		XPForNext:       XPForNext(xpTotal),
		ProgressPercent: ProgressPercent(xpTotal),
	}
}
