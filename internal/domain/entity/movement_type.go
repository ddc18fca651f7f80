package entity

import "sync"

// MovementType es un tipo de movimiento de inventario. El conjunto es abierto:
// el historial puede contener tipos que el procesador no acepta como entrada.
type MovementType string

// Tipos de movimiento conocidos.
const (
	MovementTypeIN          MovementType = "IN"
	MovementTypeOUT         MovementType = "OUT"
	MovementTypeADJUSTMENT  MovementType = "ADJUSTMENT"
	MovementTypeRETURN      MovementType = "RETURN"
	MovementTypeDAMAGED     MovementType = "DAMAGED"
	MovementTypeTRANSFERIN  MovementType = "TRANSFER_IN"
	MovementTypeTRANSFEROUT MovementType = "TRANSFER_OUT"
	MovementTypePURCHASE    MovementType = "PURCHASE"
	MovementTypeSALE        MovementType = "SALE"
)

// Direction sentido de un movimiento sobre la cantidad en mano.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionIn
	DirectionOut
	// DirectionEither: el signo lo decide quien registra (ADJUSTMENT).
	DirectionEither
)

type movementTypeInfo struct {
	direction Direction
	manual    bool // aceptado por adjustStock
}

var (
	movementTypesMu sync.RWMutex
	movementTypes   = map[MovementType]movementTypeInfo{
		MovementTypeIN:          {DirectionIn, true},
		MovementTypeRETURN:      {DirectionIn, true},
		MovementTypePURCHASE:    {DirectionIn, true},
		MovementTypeOUT:         {DirectionOut, true},
		MovementTypeDAMAGED:     {DirectionOut, true},
		MovementTypeSALE:        {DirectionOut, true},
		MovementTypeADJUSTMENT:  {DirectionEither, true},
		MovementTypeTRANSFERIN:  {DirectionIn, false},
		MovementTypeTRANSFEROUT: {DirectionOut, false},
	}
)

// RegisterMovementType agrega (o reemplaza) un tipo de movimiento con su sentido.
// manual indica si puede registrarse directamente vía adjustStock.
func RegisterMovementType(t MovementType, dir Direction, manual bool) {
	movementTypesMu.Lock()
	defer movementTypesMu.Unlock()
	movementTypes[t] = movementTypeInfo{direction: dir, manual: manual}
}

// Direction devuelve el sentido registrado del tipo (DirectionUnknown si no existe).
func (t MovementType) Direction() Direction {
	movementTypesMu.RLock()
	defer movementTypesMu.RUnlock()
	return movementTypes[t].direction
}

// IsManual indica si el tipo puede registrarse con adjustStock.
func (t MovementType) IsManual() bool {
	movementTypesMu.RLock()
	defer movementTypesMu.RUnlock()
	return movementTypes[t].manual
}

// IsKnown indica si el tipo está registrado.
func (t MovementType) IsKnown() bool {
	return t.Direction() != DirectionUnknown
}

func (t MovementType) String() string { return string(t) }
