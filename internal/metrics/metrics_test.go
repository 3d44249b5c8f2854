package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("public_availability")
		IncBookingCreated()
		IncBookingConflict()
		ObserveAvailabilityBuild("glow-facial", 0.01)
		IncNotification("email", "sent")
	})
}
