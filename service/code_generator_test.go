package application

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"stay_service/domain"
	errs "stay_service/errors"
	"stay_service/store"
)

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func TestCodeAlphabet_Shape(t *testing.T) {
	assert.Len(t, CodeAlphabet, 32)

	for _, ambiguous := range []string{"0", "O", "1", "I"} {
		assert.NotContains(t, CodeAlphabet, ambiguous)
	}

	seen := make(map[rune]bool)
	for _, symbol := range CodeAlphabet {
		assert.False(t, seen[symbol], "duplicate symbol %q", symbol)
		seen[symbol] = true
	}
}

func TestGenerateUniqueCode_ProducesValidCodes(t *testing.T) {
	reservations := store.NewReservationInMemoryStore()
	generator := NewCodeGenerator(reservations, testTracer())

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := generator.GenerateUniqueCode(context.Background())
		require.NoError(t, err)

		assert.Len(t, code, DefaultCodeLength)
		for _, symbol := range code {
			assert.Contains(t, CodeAlphabet, string(symbol))
		}

		assert.False(t, seen[code], "code %q drawn twice", code)
		seen[code] = true

		_, err = reservations.Insert(context.Background(), &domain.Reservation{
			GuestName:  "Guest",
			AccessCode: code,
		})
		require.NoError(t, err)
	}
}

// saturatedStore reports every candidate code as taken.
type saturatedStore struct {
	*store.ReservationInMemoryStore
}

func (s *saturatedStore) ExistsByAccessCode(ctx context.Context, code string) (bool, error) {
	return true, nil
}

func TestGenerateUniqueCode_Exhausted(t *testing.T) {
	generator := NewCodeGenerator(&saturatedStore{store.NewReservationInMemoryStore()}, testTracer())

	_, err := generator.GenerateUniqueCode(context.Background())
	assert.ErrorIs(t, err, errs.ErrCodeGenerationExhausted)
}

func TestNormalizeAccessCode(t *testing.T) {
	assert.Equal(t, "AB3DEFGH", NormalizeAccessCode("  ab3dEFgh "))
	assert.Equal(t, "AB3DEFGH", NormalizeAccessCode("AB3DEFGH"))
	assert.Equal(t, "", NormalizeAccessCode("   "))
	assert.False(t, strings.ContainsAny(NormalizeAccessCode("\tqrs234\n"), " \t\n"))
}
