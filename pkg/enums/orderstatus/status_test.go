package orderstatus

import "testing"

func TestValid(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{name: "pending", status: Pending, want: true},
		{name: "processing", status: Processing, want: true},
		{name: "ready", status: Ready, want: true},
		{name: "paid", status: Paid, want: true},
		{name: "completed", status: Completed, want: true},
		{name: "cancelled", status: Cancelled, want: true},
		{name: "paymentFailed", status: PaymentFailed, want: true},
		{name: "unknown", status: Status("SHIPPED"), want: false},
		{name: "empty", status: Status(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.status); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{name: "pendingToProcessing", from: Pending, to: Processing, want: true},
		{name: "processingToReady", from: Processing, to: Ready, want: true},
		{name: "readyToPaid", from: Ready, to: Paid, want: true},
		{name: "paidToCompleted", from: Paid, to: Completed, want: true},

		// Forward jumps are legal: an order can settle before the
		// kitchen pipeline catches up.
		{name: "pendingToPaid", from: Pending, to: Paid, want: true},
		{name: "pendingToReady", from: Pending, to: Ready, want: true},
		{name: "processingToCompleted", from: Processing, to: Completed, want: true},

		// Never backwards through the main line.
		{name: "readyToProcessing", from: Ready, to: Processing, want: false},
		{name: "paidToPending", from: Paid, to: Pending, want: false},
		{name: "completedToPaid", from: Completed, to: Paid, want: false},

		// Cancellation and payment failure leave PENDING only.
		{name: "pendingToCancelled", from: Pending, to: Cancelled, want: true},
		{name: "pendingToPaymentFailed", from: Pending, to: PaymentFailed, want: true},
		{name: "processingToCancelled", from: Processing, to: Cancelled, want: false},
		{name: "readyToCancelled", from: Ready, to: Cancelled, want: false},
		{name: "paidToCancelled", from: Paid, to: Cancelled, want: false},
		{name: "readyToPaymentFailed", from: Ready, to: PaymentFailed, want: false},

		// A failed payment re-enters the flow at PENDING for retry.
		{name: "paymentFailedToPending", from: PaymentFailed, to: Pending, want: true},
		{name: "paymentFailedToPaid", from: PaymentFailed, to: Paid, want: false},
		{name: "paymentFailedToCancelled", from: PaymentFailed, to: Cancelled, want: false},

		// Terminal states go nowhere.
		{name: "completedToPending", from: Completed, to: Pending, want: false},
		{name: "cancelledToPending", from: Cancelled, to: Pending, want: false},
		{name: "cancelledToProcessing", from: Cancelled, to: Processing, want: false},

		{name: "selfTransition", from: Processing, to: Processing, want: false},
		{name: "unknownTarget", from: Pending, to: Status("SHIPPED"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestSettled(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{Pending, false},
		{Processing, false},
		{Ready, false},
		{Paid, true},
		{Completed, true},
		{Cancelled, false},
		{PaymentFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Settled(); got != tt.want {
				t.Errorf("%s.Settled() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{Pending, false},
		{Paid, false},
		{Completed, true},
		{Cancelled, true},
		{PaymentFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.want {
				t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestActive(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{Pending, true},
		{Processing, true},
		{Ready, true},
		{PaymentFailed, true},
		{Paid, false},
		{Completed, false},
		{Cancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Active(); got != tt.want {
				t.Errorf("%s.Active() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestAppendable(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{Pending, true},
		{Processing, true},
		{Ready, true},
		{Paid, false},
		{Completed, false},
		{Cancelled, false},
		{PaymentFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Appendable(); got != tt.want {
				t.Errorf("%s.Appendable() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}
