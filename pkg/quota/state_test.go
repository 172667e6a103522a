package quota

import (
	"testing"
	"time"
)

func TestState_UpdateHealth(t *testing.T) {
	tests := []struct {
		name        string
		quotaErrors int
		wantHealthy bool
	}{
		{name: "no_errors", quotaErrors: 0, wantHealthy: true},
		{name: "below_threshold", quotaErrors: BlockThreshold - 1, wantHealthy: true},
		{name: "at_threshold", quotaErrors: BlockThreshold, wantHealthy: false},
		{name: "above_threshold", quotaErrors: BlockThreshold + 3, wantHealthy: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{QuotaErrors: tt.quotaErrors}
			state.UpdateHealth()

			if state.IsHealthy != tt.wantHealthy {
				t.Errorf("IsHealthy = %v, want %v", state.IsHealthy, tt.wantHealthy)
			}
			if state.NeedsBlock() == tt.wantHealthy {
				t.Errorf("NeedsBlock() = %v, inconsistent with health", state.NeedsBlock())
			}
		})
	}
}

func TestState_TimeUntilReset(t *testing.T) {
	t.Run("future_window", func(t *testing.T) {
		state := &State{WindowEnds: time.Now().Add(30 * time.Second)}
		d := state.TimeUntilReset()
		if d <= 25*time.Second || d > 30*time.Second {
			t.Errorf("TimeUntilReset() = %v, want ~30s", d)
		}
	})

	t.Run("past_window", func(t *testing.T) {
		state := &State{WindowEnds: time.Now().Add(-time.Minute)}
		if d := state.TimeUntilReset(); d != 0 {
			t.Errorf("TimeUntilReset() = %v, want 0", d)
		}
	})
}
