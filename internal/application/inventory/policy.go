package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Policy parámetros de negocio y de reintento del motor.
type Policy struct {
	// AllowNegativeStock permite que un ajuste deje la cantidad en negativo (por defecto no).
	AllowNegativeStock bool
	// MaxRetries reintentos ante ErrConcurrentModification antes de devolverlo al llamador.
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultPolicy política por defecto: sin stock negativo, 3 reintentos con backoff de 20ms a 500ms.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:     3,
		InitialBackoff: 20 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (p Policy) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialBackoff
	b.MaxInterval = p.MaxBackoff
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx)
}

// retry ejecuta fn y la repite solo ante conflictos de concurrencia.
// Cualquier otro error (stock insuficiente, validación, infraestructura) se devuelve de inmediato.
func retry(ctx context.Context, p Policy, op string, log zerolog.Logger, rec Recorder, fn func() error) error {
	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrConcurrentModification) {
			return err
		}
		return backoff.Permanent(err)
	}, p.newBackOff(ctx), func(err error, wait time.Duration) {
		rec.IncRetry(op)
		log.Warn().
			Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("conflicto de concurrencia, reintentando")
	})
}
