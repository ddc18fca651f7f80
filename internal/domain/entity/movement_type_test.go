package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestMovementType_Sentidos(t *testing.T) {
	cases := map[entity.MovementType]entity.Direction{
		entity.MovementTypeIN:          entity.DirectionIn,
		entity.MovementTypeRETURN:      entity.DirectionIn,
		entity.MovementTypePURCHASE:    entity.DirectionIn,
		entity.MovementTypeTRANSFERIN:  entity.DirectionIn,
		entity.MovementTypeOUT:         entity.DirectionOut,
		entity.MovementTypeDAMAGED:     entity.DirectionOut,
		entity.MovementTypeSALE:        entity.DirectionOut,
		entity.MovementTypeTRANSFEROUT: entity.DirectionOut,
		entity.MovementTypeADJUSTMENT:  entity.DirectionEither,
	}
	for mt, dir := range cases {
		assert.Equal(t, dir, mt.Direction(), mt.String())
		assert.True(t, mt.IsKnown(), mt.String())
	}
}

func TestMovementType_TrasladosNoSonManuales(t *testing.T) {
	assert.False(t, entity.MovementTypeTRANSFERIN.IsManual())
	assert.False(t, entity.MovementTypeTRANSFEROUT.IsManual())
	assert.True(t, entity.MovementTypeDAMAGED.IsManual())
}

func TestMovementType_Desconocido(t *testing.T) {
	mt := entity.MovementType("NO_EXISTE")
	assert.False(t, mt.IsKnown())
	assert.False(t, mt.IsManual())
	assert.Equal(t, entity.DirectionUnknown, mt.Direction())
}

func TestRegisterMovementType_ExtiendeElConjunto(t *testing.T) {
	mt := entity.MovementType("CONSIGNMENT_IN")
	entity.RegisterMovementType(mt, entity.DirectionIn, true)

	assert.True(t, mt.IsKnown())
	assert.True(t, mt.IsManual())

	m := &entity.StockMovement{Type: mt, Quantity: 4}
	assert.Equal(t, int64(4), m.SignedQuantity())
}

func TestSignedQuantity_AjusteUsaSnapshots(t *testing.T) {
	up := &entity.StockMovement{Type: entity.MovementTypeADJUSTMENT, Quantity: 5, QuantityBefore: 10, QuantityAfter: 15}
	down := &entity.StockMovement{Type: entity.MovementTypeADJUSTMENT, Quantity: 5, QuantityBefore: 10, QuantityAfter: 5}
	assert.Equal(t, int64(5), up.SignedQuantity())
	assert.Equal(t, int64(-5), down.SignedQuantity())
}

func TestInventoryRecord_DisponibleYValor(t *testing.T) {
	r := &entity.InventoryRecord{Quantity: 10, ReservedQuantity: 4}
	assert.Equal(t, int64(6), r.AvailableQuantity())
	assert.False(t, r.Deletable())
}
