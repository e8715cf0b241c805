package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_AlertFiresOncePerEpisode(t *testing.T) {
	tr := NewTracker(3, 30*time.Minute)

	assert.False(t, tr.RecordFailure("discord"))
	assert.False(t, tr.RecordFailure("discord"))
	assert.True(t, tr.RecordFailure("discord"), "third failure crosses threshold")
	assert.False(t, tr.RecordFailure("discord"), "no repeated alert in same episode")
	assert.Equal(t, 4, tr.Failures("discord"))

	// success ends the episode, next threshold crossing alerts again
	tr.RecordSuccess("discord")
	assert.Equal(t, 0, tr.Failures("discord"))
	assert.False(t, tr.RecordFailure("discord"))
	assert.False(t, tr.RecordFailure("discord"))
	assert.True(t, tr.RecordFailure("discord"))
}

func TestTracker_DestinationsIndependent(t *testing.T) {
	tr := NewTracker(2, 30*time.Minute)

	assert.False(t, tr.RecordFailure("discord"))
	assert.False(t, tr.RecordFailure("telegram"))
	assert.True(t, tr.RecordFailure("discord"))
	assert.Equal(t, 2, tr.Failures("discord"))
	assert.Equal(t, 1, tr.Failures("telegram"))
}

func TestTracker_NoCooldownBeforeAlert(t *testing.T) {
	tr := NewTracker(5, 30*time.Minute)

	assert.False(t, tr.InCooldown("discord"), "unknown destination")
	tr.RecordFailure("discord")
	assert.False(t, tr.InCooldown("discord"), "degraded but below threshold")
}

func TestTracker_CooldownExpires(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(2, 30*time.Minute)
	tr.nowFn = func() time.Time { return now }

	tr.RecordFailure("discord")
	tr.RecordFailure("discord") // alerted, 2 failures -> 4m window

	assert.True(t, tr.InCooldown("discord"))

	now = now.Add(3 * time.Minute)
	assert.True(t, tr.InCooldown("discord"))

	now = now.Add(2 * time.Minute) // 5m since last failure, window was 4m
	assert.False(t, tr.InCooldown("discord"))
}

func TestTracker_CooldownMonotonicAndCapped(t *testing.T) {
	tr := NewTracker(2, 10*time.Minute)

	prev := time.Duration(0)
	for failures := 1; failures <= 20; failures++ {
		d := tr.cooldownFor(failures)
		assert.GreaterOrEqual(t, d, prev, "cooldown non-decreasing in failure count")
		assert.LessOrEqual(t, d, 10*time.Minute, "cooldown capped")
		prev = d
	}
	assert.Equal(t, 10*time.Minute, tr.cooldownFor(20))
}

func TestTracker_SuccessClearsCooldown(t *testing.T) {
	tr := NewTracker(1, 30*time.Minute)

	tr.RecordFailure("mastodon")
	assert.True(t, tr.InCooldown("mastodon"))

	tr.RecordSuccess("mastodon")
	assert.False(t, tr.InCooldown("mastodon"))
}

func TestTracker_Snapshot(t *testing.T) {
	tr := NewTracker(2, 30*time.Minute)
	tr.RecordFailure("discord")
	tr.RecordFailure("discord")
	tr.RecordSuccess("telegram")

	snap := tr.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, 2, snap["discord"].Failures)
	assert.True(t, snap["discord"].Alerted)
	assert.True(t, snap["discord"].InCooldown)
	assert.Equal(t, 0, snap["telegram"].Failures)
	assert.False(t, snap["telegram"].InCooldown)
}

func TestTracker_Defaults(t *testing.T) {
	tr := NewTracker(0, 0)
	assert.Equal(t, 5, tr.threshold)
	assert.Equal(t, 30*time.Minute, tr.cooldownCap)
}
