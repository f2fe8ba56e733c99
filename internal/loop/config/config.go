// Package config centralizes the loop timing parameters. Gameplay tuning
// lives in internal/config.
package config

import "time"

// Simulation step. Physics constants are expressed per step.
const (
	StepsPerSecond = 60
	StepTime       = time.Second / StepsPerSecond
	MaxFrameDelta  = 100 * time.Millisecond // Longer frames (stalls, suspended terminals) are clamped
)

// Client rendering
const (
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS
)

// Hub tick rate. The hub only aggregates scores, so it runs slowly.
const (
	ServerTickRate = 4
	ServerTickTime = time.Second / ServerTickRate
)

// Players
const (
	MaxUsernameLength = 16 // Maximum display length for player names
	LiveBoardSize     = 3  // Live scores shown in the HUD
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)
