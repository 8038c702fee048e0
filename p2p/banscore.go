package p2p

import "time"

// BanThreshold and BanDuration are spec.md §4.6's ">5 misbehavior score
// closes the connection and bans the remote IP for one hour".
const (
	BanThreshold = 5
	BanDuration  = 1 * time.Hour
)

// BanScore is a per-connection misbehavior counter. Unlike the
// teacher's wall-clock-decaying BanScore (node/p2p/banscore.go), this
// one never decays itself: spec.md §4.7 heartbeat step 3 says the
// orchestrator decrements every peer's score by one each ~10s tick, so
// decay is driven externally via Decay rather than by elapsed time
// observed on Add/Score.
type BanScore struct {
	score int
}

// Score returns the current ban score.
func (b *BanScore) Score() int { return b.score }

// Add increments the score by delta (floored at 0) and returns the new
// value.
func (b *BanScore) Add(delta int) int {
	b.score += delta
	if b.score < 0 {
		b.score = 0
	}
	return b.score
}

// Decay applies one heartbeat's worth of score decrement.
func (b *BanScore) Decay() {
	if b.score > 0 {
		b.score--
	}
}

// ShouldBan reports whether the score has crossed BanThreshold.
func (b *BanScore) ShouldBan() bool { return b.score > BanThreshold }
