package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// errorMapping código HTTP y código de error para cada error de dominio.
var errorMapping = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION", "datos inválidos"},
	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY", "cantidad inválida"},
	{domain.ErrInvalidMovementType, fiber.StatusBadRequest, "INVALID_MOVEMENT_TYPE", "tipo de movimiento inválido"},
	{domain.ErrSameLocation, fiber.StatusBadRequest, "SAME_LOCATION", "origen y destino deben ser distintos"},
	{domain.ErrProductNotFound, fiber.StatusNotFound, "PRODUCT_NOT_FOUND", "producto no encontrado"},
	{domain.ErrLocationNotFound, fiber.StatusNotFound, "LOCATION_NOT_FOUND", "ubicación no encontrada o inactiva"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "registro de inventario no encontrado"},
	{domain.ErrAlreadyExists, fiber.StatusConflict, "ALREADY_EXISTS", "ya existe inventario para el producto en la ubicación"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK", "stock insuficiente"},
	{domain.ErrConcurrentModification, fiber.StatusConflict, "CONCURRENT_MODIFICATION", "el registro fue modificado por otra operación, reintente"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT", "la operación entra en conflicto con el estado actual"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED", "no autenticado"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN", "acceso denegado al recurso"},
}

// writeError responde con el código que corresponde al error de dominio; los no reconocidos son 500
// y se registran con el detalle, que no se expone al cliente.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: m.message})
		}
	}
	log.Error().Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("request_id", GetRequestID(c)).
		Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: message})
}
