package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Inventory *inventory.InventoryUseCase
	Processor *inventory.AdjustmentProcessor
	Transfers *inventory.TransferCoordinator
	Kardex    inventory.KardexRenderer
	JWTSecret string
	Log       zerolog.Logger
}

// Router registra las rutas de la API.
//
// Permisos por rol:
//   - lectura (listado, detalle, historial, kardex): todos los roles.
//   - reservas: admin, bodeguero, vendedor.
//   - alta, edición, ajustes, traslados y conciliación: admin, bodeguero.
//   - baja: solo admin.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor)
	warehouse := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	adminOnly := RequireRole(jwt.RoleAdmin)

	inv := protected.Group("/inventory")
	h := NewInventoryHandler(deps.Inventory, deps.Processor, deps.Transfers, deps.Kardex, deps.Log)

	// Rutas estáticas antes de /:id
	inv.Get("/movements", anyRole, h.Movements)
	inv.Get("/movements/export", anyRole, h.ExportMovements)
	inv.Post("/adjust", warehouse, h.Adjust)
	inv.Post("/transfer", warehouse, h.Transfer)

	inv.Post("/", warehouse, h.Create)
	inv.Get("/", anyRole, h.List)
	inv.Get("/:id", anyRole, h.GetByID)
	inv.Patch("/:id", warehouse, h.Update)
	inv.Delete("/:id", adminOnly, h.Delete)
	inv.Post("/:id/adjust", warehouse, h.Adjust)
	inv.Post("/:id/reserve", anyRole, h.Reserve)
	inv.Post("/:id/release", anyRole, h.Release)
	inv.Get("/:id/reconcile", warehouse, h.Reconcile)
}
