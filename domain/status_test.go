package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(value string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNextStatus_UpcomingBecomesActiveDuringStay(t *testing.T) {
	checkIn := date("2024-01-01")
	checkOut := date("2024-01-03")

	assert.Equal(t, StatusUpcoming, NextStatus(StatusUpcoming, checkIn, checkOut, date("2023-12-31")))
	assert.Equal(t, StatusActive, NextStatus(StatusUpcoming, checkIn, checkOut, date("2024-01-01")))
	assert.Equal(t, StatusActive, NextStatus(StatusUpcoming, checkIn, checkOut, date("2024-01-03")))
}

func TestNextStatus_DirectToCompleted(t *testing.T) {
	// A stay never observed during its active window still completes.
	got := NextStatus(StatusUpcoming, date("2024-01-01"), date("2024-01-03"), date("2024-02-01"))
	assert.Equal(t, StatusCompleted, got)
}

func TestNextStatus_StaleActiveCompletes(t *testing.T) {
	got := NextStatus(StatusActive, date("2024-01-01"), date("2024-01-03"), date("2024-01-04"))
	assert.Equal(t, StatusCompleted, got)
}

func TestNextStatus_TerminalStatesNeverChange(t *testing.T) {
	checkIn := date("2024-01-01")
	checkOut := date("2024-01-03")

	for _, today := range []time.Time{date("2023-12-01"), date("2024-01-02"), date("2025-01-01")} {
		assert.Equal(t, StatusCancelled, NextStatus(StatusCancelled, checkIn, checkOut, today))
		assert.Equal(t, StatusCompleted, NextStatus(StatusCompleted, checkIn, checkOut, today))
	}
}

func TestNextStatus_Monotonic(t *testing.T) {
	checkIn := date("2024-06-10")
	checkOut := date("2024-06-14")

	order := map[StayStatus]int{StatusUpcoming: 0, StatusActive: 1, StatusCompleted: 2}

	status := StatusUpcoming
	previous := order[status]
	for day := date("2024-06-01"); day.Before(date("2024-07-01")); day = day.AddDate(0, 0, 1) {
		status = NextStatus(status, checkIn, checkOut, day)
		assert.GreaterOrEqual(t, order[status], previous, "status regressed on %s", day)
		previous = order[status]
	}
	assert.Equal(t, StatusCompleted, status)
}

func TestNextStatus_Idempotent(t *testing.T) {
	checkIn := date("2024-06-10")
	checkOut := date("2024-06-14")
	today := date("2024-06-11")

	once := NextStatus(StatusUpcoming, checkIn, checkOut, today)
	twice := NextStatus(once, checkIn, checkOut, today)
	assert.Equal(t, once, twice)
}
