package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ inventory.ReferenceCache = (*ReferenceCache)(nil)

const keyPrefix = "stock-ledger:ref"

// ReferenceCache recuerda qué movimiento produjo cada referencia ya aplicada.
// Key: stock-ledger:ref:{tipo_ref}:{ref}:{producto}:{ubicación}:{tipo_mov} -> id del movimiento.
type ReferenceCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewReferenceCache construye la caché; ttl <= 0 deja las claves sin expiración.
func NewReferenceCache(client redis.Cmdable, ttl time.Duration) *ReferenceCache {
	return &ReferenceCache{client: client, ttl: ttl}
}

// Get devuelve el movimiento registrado para la referencia, si lo hay.
func (c *ReferenceCache) Get(ctx context.Context, key repository.ReferenceKey) (string, bool, error) {
	id, err := c.client.Get(ctx, cacheKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("leer referencia: %w", err)
	}
	return id, true, nil
}

// Put guarda la referencia. SetNX: la primera escritura gana.
func (c *ReferenceCache) Put(ctx context.Context, key repository.ReferenceKey, movementID string) error {
	if err := c.client.SetNX(ctx, cacheKey(key), movementID, c.ttl).Err(); err != nil {
		return fmt.Errorf("guardar referencia: %w", err)
	}
	return nil
}

func cacheKey(k repository.ReferenceKey) string {
	return strings.Join([]string{keyPrefix, k.ReferenceType, k.ReferenceID}, ":")
}
