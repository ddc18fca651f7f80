package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

func TestCacheKey_IncluyeTipoYReferencia(t *testing.T) {
	key := repository.ReferenceKey{ReferenceID: "PO-7", ReferenceType: "PURCHASE_ORDER"}
	assert.Equal(t, "stock-ledger:ref:PURCHASE_ORDER:PO-7", cacheKey(key))
}

func TestCacheKey_DistingueTipoDeReferencia(t *testing.T) {
	sale := repository.ReferenceKey{ReferenceID: "R1", ReferenceType: "SALE_ORDER"}
	purchase := sale
	purchase.ReferenceType = "PURCHASE_ORDER"
	assert.NotEqual(t, cacheKey(sale), cacheKey(purchase))
}
