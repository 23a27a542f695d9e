package application

import (
	"context"
	"crypto/rand"
	"strings"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stay_service/domain"
	errs "stay_service/errors"
)

// 32 symbols, 5 bits each: an 8-character code carries 40 bits. 0/O and 1/I
// are excluded as visually ambiguous; codes are always uppercase.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const DefaultCodeLength = 8

const maxGenerateAttempts = 10

// CodeGenerator produces the human-enterable access codes that stand in for
// guest credentials. Candidates come from crypto/rand and are checked
// against the store; the unique index on accessCode remains the last word
// under concurrent creates.
type CodeGenerator struct {
	store  domain.ReservationStore
	length int
	tracer trace.Tracer
}

func NewCodeGenerator(store domain.ReservationStore, tracer trace.Tracer) *CodeGenerator {
	return &CodeGenerator{
		store:  store,
		length: DefaultCodeLength,
		tracer: tracer,
	}
}

// GenerateUniqueCode draws codes until one is unused, bounded at ten
// attempts. Exhaustion is fatal to the create operation: it signals a
// near-full code space or a store malfunction, not something to paper over.
func (generator *CodeGenerator) GenerateUniqueCode(ctx context.Context) (string, error) {
	ctx, span := generator.tracer.Start(ctx, "CodeGenerator.GenerateUniqueCode")
	defer span.End()

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := randomCode(generator.length)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}

		exists, err := generator.store.ExistsByAccessCode(ctx, code)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	span.SetStatus(codes.Error, errs.ErrCodeGenerationExhausted.Error())
	return "", errs.ErrCodeGenerationExhausted
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	var builder strings.Builder
	for _, b := range buf {
		// 256 is a multiple of 32, so the modulo introduces no bias.
		builder.WriteByte(CodeAlphabet[int(b)%len(CodeAlphabet)])
	}
	return builder.String(), nil
}

// NormalizeAccessCode maps raw guest input onto the stored form: surrounding
// whitespace dropped, letters upper-cased.
func NormalizeAccessCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
