package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrAlreadyExists          = errors.New("ya existe un inventario para el producto en la ubicación")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrInvalidQuantity        = errors.New("cantidad inválida")
	ErrInvalidMovementType    = errors.New("tipo de movimiento inválido")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrSameLocation           = errors.New("origen y destino son la misma ubicación")
	ErrLocationNotFound       = errors.New("ubicación no encontrada o inactiva")
	ErrProductNotFound        = errors.New("producto no encontrado")
	ErrConcurrentModification = errors.New("el inventario fue modificado concurrentemente")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
)
