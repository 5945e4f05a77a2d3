package auth

import (
	"context"

	"github.com/pkg/errors"
)

// StaticVerifier — таблица token -> identity для локальной разработки
// и тестов, вместо похода к внешнему провайдеру.
type StaticVerifier struct {
	tokens map[string]Identity
}

func NewStaticVerifier(tokens map[string]Identity) *StaticVerifier {
	if tokens == nil {
		tokens = map[string]Identity{}
	}
	return &StaticVerifier{tokens: tokens}
}

func (v *StaticVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	id, ok := v.tokens[token]
	if !ok {
		return Identity{}, errors.Wrap(ErrUnauthenticated, "unknown token")
	}
	return id, nil
}
