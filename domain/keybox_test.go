package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyboxDisclosable_BeforeWindow(t *testing.T) {
	checkIn := date("2024-06-10")
	checkOut := date("2024-06-12")

	now := time.Date(2024, 6, 8, 23, 0, 0, 0, time.UTC)
	assert.False(t, KeyboxDisclosable(checkIn, checkOut, now))
}

func TestKeyboxDisclosable_WindowStartInclusive(t *testing.T) {
	checkIn := date("2024-06-10")
	checkOut := date("2024-06-12")

	windowStart := checkIn.Add(-24 * time.Hour)
	assert.True(t, KeyboxDisclosable(checkIn, checkOut, windowStart))
	assert.True(t, KeyboxDisclosable(checkIn, checkOut, windowStart.Add(time.Minute)))
	assert.False(t, KeyboxDisclosable(checkIn, checkOut, windowStart.Add(-time.Second)))
}

func TestKeyboxDisclosable_DuringStay(t *testing.T) {
	checkIn := date("2024-06-10")
	checkOut := date("2024-06-12")

	assert.True(t, KeyboxDisclosable(checkIn, checkOut, time.Date(2024, 6, 11, 12, 0, 0, 0, time.UTC)))
	// Up to the very end of the checkout day.
	assert.True(t, KeyboxDisclosable(checkIn, checkOut, time.Date(2024, 6, 12, 23, 59, 59, 0, time.UTC)))
}

func TestKeyboxDisclosable_AfterCheckoutDay(t *testing.T) {
	checkIn := date("2024-06-10")
	checkOut := date("2024-06-12")

	now := time.Date(2024, 6, 13, 0, 0, 1, 0, time.UTC)
	assert.False(t, KeyboxDisclosable(checkIn, checkOut, now))
}
