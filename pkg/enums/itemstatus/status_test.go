package itemstatus

import "testing"

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{name: "needsPreparationToInProgress", from: NeedsPreparation, to: InProgress, want: true},
		{name: "inProgressToReady", from: InProgress, to: Ready, want: true},
		{name: "readyToDelivered", from: Ready, to: Delivered, want: true},

		// Skipping forward is fine, a cold drink needs no preparation.
		{name: "needsPreparationToReady", from: NeedsPreparation, to: Ready, want: true},
		{name: "needsPreparationToDelivered", from: NeedsPreparation, to: Delivered, want: true},

		{name: "readyToInProgress", from: Ready, to: InProgress, want: false},
		{name: "deliveredToReady", from: Delivered, to: Ready, want: false},
		{name: "inProgressToNeedsPreparation", from: InProgress, to: NeedsPreparation, want: false},
		{name: "selfTransition", from: InProgress, to: InProgress, want: false},
		{name: "unknownTarget", from: Ready, to: Status("BURNED"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{NeedsPreparation, true},
		{InProgress, true},
		{Ready, false},
		{Delivered, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Open(); got != tt.want {
				t.Errorf("%s.Open() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	if !Valid(Ready) {
		t.Error("Valid(Ready) = false, want true")
	}
	if Valid(Status("BURNED")) {
		t.Error(`Valid("BURNED") = true, want false`)
	}
}
