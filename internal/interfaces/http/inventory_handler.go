package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

// InventoryHandler maneja las peticiones HTTP de inventario y movimientos (protegido).
type InventoryHandler struct {
	uc        *inventory.InventoryUseCase
	processor *inventory.AdjustmentProcessor
	transfers *inventory.TransferCoordinator
	kardex    inventory.KardexRenderer
	log       zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	uc *inventory.InventoryUseCase,
	processor *inventory.AdjustmentProcessor,
	transfers *inventory.TransferCoordinator,
	kardex inventory.KardexRenderer,
	log zerolog.Logger,
) *InventoryHandler {
	return &InventoryHandler{uc: uc, processor: processor, transfers: transfers, kardex: kardex, log: log}
}

// Create godoc
// @Summary      Crear registro de inventario
// @Description  Crea el registro de un producto en una ubicación. Si quantity > 0 se registra un movimiento IN inicial.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateInventoryRequest  true  "product_id, location_id, quantity inicial, umbrales"
// @Success      201   {object}  dto.InventoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory [post]
func (h *InventoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInventoryRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	view, err := h.uc.Create(c.UserContext(), inventory.CreateInput{
		ProductID:         in.ProductID,
		LocationID:        in.LocationID,
		Quantity:          in.Quantity,
		MinStockLevel:     in.MinStockLevel,
		MaxStockLevel:     in.MaxStockLevel,
		WarehouseLocation: in.WarehouseLocation,
		Zone:              in.Zone,
		UnitCost:          in.UnitCost,
		CreatedBy:         GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toResponse(view))
}

// List godoc
// @Summary      Listar inventario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  false  "Filtrar por ubicación"
// @Param        product_id   query  string  false  "Filtrar por producto"
// @Param        category     query  string  false  "Filtrar por categoría del producto"
// @Param        search       query  string  false  "Busca en nombre y SKU"
// @Param        status       query  string  false  "in_stock | low_stock | out_of_stock | overstocked"
// @Param        page         query  int     false  "Página (desde 1)"
// @Param        page_size    query  int     false  "Tamaño de página (máx. 100)"
// @Success      200  {object}  dto.InventoryListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badRequest(c, "VALIDATION", "paginación inválida")
	}
	if err := validate.Struct(page); err != nil {
		return badRequest(c, "VALIDATION", describeValidation(err))
	}
	page.DefaultPage()

	out, err := h.uc.List(c.UserContext(), inventory.ListInput{
		Filter: repository.RecordFilter{
			LocationID: c.Query("location_id"),
			ProductID:  c.Query("product_id"),
			Category:   c.Query("category"),
			Search:     strings.TrimSpace(c.Query("search")),
		},
		Status:   domaininv.StockStatus(c.Query("status")),
		Page:     page.Page,
		PageSize: page.PageSize,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.InventoryResponse, 0, len(out.Items))
	for i := range out.Items {
		items = append(items, toResponse(&out.Items[i]))
	}
	return c.JSON(dto.InventoryListResponse{
		Items: items,
		Page:  dto.PageResponse{Page: out.Page, PageSize: out.PageSize, Total: out.Total},
	})
}

// GetByID godoc
// @Summary      Obtener registro de inventario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del registro"
// @Success      200  {object}  dto.InventoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id} [get]
func (h *InventoryHandler) GetByID(c *fiber.Ctx) error {
	view, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toResponse(view))
}

// Update godoc
// @Summary      Actualizar umbrales y ubicación física
// @Description  No modifica la cantidad: para eso están adjust y transfer.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                      true  "ID del registro"
// @Param        body  body      dto.UpdateInventoryRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.InventoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/{id} [patch]
func (h *InventoryHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateInventoryRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	view, err := h.uc.Update(c.UserContext(), c.Params("id"), inventory.UpdateInput{
		MinStockLevel:     in.MinStockLevel,
		MaxStockLevel:     in.MaxStockLevel,
		ClearMin:          in.ClearMinStockLevel,
		ClearMax:          in.ClearMaxStockLevel,
		WarehouseLocation: in.WarehouseLocation,
		Zone:              in.Zone,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toResponse(view))
}

// Delete godoc
// @Summary      Dar de baja un registro
// @Description  Solo registros sin stock ni reservas. El historial se conserva.
// @Tags         inventory
// @Security     Bearer
// @Param        id   path  string  true  "ID del registro"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id} [delete]
func (h *InventoryHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Adjust godoc
// @Summary      Ajustar stock
// @Description  Registra un movimiento (IN, OUT, ADJUSTMENT, RETURN, DAMAGED, PURCHASE, SALE) sobre un registro.
// @Description  Con reference_id la operación es idempotente.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  false  "ID del registro (ruta /{id}/adjust)"
// @Param        body  body      dto.AdjustStockRequest  true   "type, quantity o new_quantity, referencia"
// @Success      201   {object}  dto.AdjustStockResponse
// @Success      200   {object}  dto.AdjustStockResponse  "referencia ya aplicada"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjust [post]
// @Router       /api/inventory/{id}/adjust [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	recordID := c.Params("id")
	if recordID == "" && (in.ProductID == "" || in.LocationID == "") {
		return badRequest(c, "VALIDATION", "product_id y location_id son requeridos")
	}
	res, err := h.processor.Adjust(c.UserContext(), inventory.AdjustInput{
		RecordID:      recordID,
		ProductID:     in.ProductID,
		LocationID:    in.LocationID,
		Type:          entity.MovementType(strings.ToUpper(strings.TrimSpace(in.Type))),
		Quantity:      in.Quantity,
		NewQuantity:   in.NewQuantity,
		UnitCost:      in.UnitCost,
		Notes:         in.Notes,
		ReferenceID:   in.ReferenceID,
		ReferenceType: in.ReferenceType,
		CreatedBy:     GetUserID(c),
		AllowNegative: in.AllowNegative && GetRole(c) == jwt.RoleAdmin,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	view, err := h.uc.View(c.UserContext(), res.Record)
	if err != nil {
		return writeError(c, h.log, err)
	}
	status := fiber.StatusCreated
	if res.Replayed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(dto.AdjustStockResponse{
		Movement:  dto.FromMovement(res.Movement),
		Inventory: toResponse(view),
		Replayed:  res.Replayed,
	})
}

// Transfer godoc
// @Summary      Trasladar stock entre ubicaciones
// @Description  Débito TRANSFER_OUT en origen y crédito TRANSFER_IN en destino, atómicos.
// @Description  reference_id (id del traslado) hace la operación idempotente.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.TransferStockRequest  true  "product_id, from_location_id, to_location_id, quantity"
// @Success      201   {object}  dto.TransferStockResponse
// @Success      200   {object}  dto.TransferStockResponse  "traslado ya aplicado"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfer [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferStockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	ctx := c.UserContext()
	res, err := h.transfers.Transfer(ctx, inventory.TransferInput{
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		Notes:          in.Notes,
		ReferenceID:    in.ReferenceID,
		CreatedBy:      GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	source, err := h.uc.View(ctx, res.Source)
	if err != nil {
		return writeError(c, h.log, err)
	}
	dest, err := h.uc.View(ctx, res.Destination)
	if err != nil {
		return writeError(c, h.log, err)
	}
	status := fiber.StatusCreated
	if res.Replayed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(dto.TransferStockResponse{
		TransferID:  res.TransferID,
		Out:         dto.FromMovement(res.Out),
		In:          dto.FromMovement(res.In),
		Source:      toResponse(source),
		Destination: toResponse(dest),
		Replayed:    res.Replayed,
	})
}

// Movements godoc
// @Summary      Historial de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  false  "Filtrar por producto"
// @Param        location_id  query  string  false  "Filtrar por ubicación"
// @Param        type         query  string  false  "Tipos separados por coma (IN,OUT,...)"
// @Param        from         query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to           query  string  false  "Hasta (RFC3339 o YYYY-MM-DD, inclusive)"
// @Param        limit        query  int     false  "Máximo 500"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	filter, err := movementFilter(c)
	if err != nil {
		return badRequest(c, "VALIDATION", err.Error())
	}
	if filter, err = inventory.NormalizeMovementFilter(filter); err != nil {
		return writeError(c, h.log, err)
	}
	list, total, err := h.uc.Movements(c.UserContext(), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items:  dto.FromMovements(list),
		Limit:  filter.Limit,
		Offset: filter.Offset,
		Total:  total,
	})
}

// ExportMovements godoc
// @Summary      Exportar kardex en PDF
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        product_id   query  string  false  "Filtrar por producto"
// @Param        location_id  query  string  false  "Filtrar por ubicación"
// @Param        type         query  string  false  "Tipos separados por coma"
// @Param        from         query  string  false  "Desde"
// @Param        to           query  string  false  "Hasta"
// @Success      200  {file}    file
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/export [get]
func (h *InventoryHandler) ExportMovements(c *fiber.Ctx) error {
	filter, err := movementFilter(c)
	if err != nil {
		return badRequest(c, "VALIDATION", err.Error())
	}
	doc, report, err := h.uc.ExportKardex(c.UserContext(), filter, h.kardex)
	if err != nil {
		return writeError(c, h.log, err)
	}
	name := fmt.Sprintf("kardex-%s.pdf", report.GeneratedAt.Format("20060102-150405"))
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(doc)
}

// Reserve godoc
// @Summary      Reservar cantidad disponible
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID del registro"
// @Param        body  body      dto.ReservationRequest  true  "quantity > 0"
// @Success      200   {object}  dto.InventoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/reserve [post]
func (h *InventoryHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReservationRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	view, err := h.uc.Reserve(c.UserContext(), c.Params("id"), in.Quantity)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toResponse(view))
}

// Release godoc
// @Summary      Liberar cantidad reservada
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID del registro"
// @Param        body  body      dto.ReservationRequest  true  "quantity > 0"
// @Success      200   {object}  dto.InventoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/release [post]
func (h *InventoryHandler) Release(c *fiber.Ctx) error {
	var in dto.ReservationRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	view, err := h.uc.Release(c.UserContext(), c.Params("id"), in.Quantity)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toResponse(view))
}

// Reconcile godoc
// @Summary      Conciliar registro contra el ledger
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del registro"
// @Success      200  {object}  dto.ReconciliationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{id}/reconcile [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	rec, err := h.uc.Reconcile(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	resp := dto.ReconciliationResponse{
		RecordID:       rec.RecordID,
		RecordQuantity: rec.RecordQuantity,
		LedgerQuantity: rec.LedgerQuantity,
		MovementCount:  rec.MovementCount,
		Consistent:     rec.Consistent,
		CheckedAt:      rec.CheckedAt,
	}
	if rec.BrokenAt >= 0 {
		at := rec.BrokenAt
		resp.BrokenAt = &at
	}
	return c.JSON(resp)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func toResponse(v *inventory.RecordView) dto.InventoryResponse {
	return dto.FromRecord(v.Record, v.Product, v.Status)
}

func movementFilter(c *fiber.Ctx) (repository.MovementFilter, error) {
	f := repository.MovementFilter{
		ProductID:  c.Query("product_id"),
		LocationID: c.Query("location_id"),
		Limit:      c.QueryInt("limit", 0),
		Offset:     c.QueryInt("offset", 0),
	}
	if raw := c.Query("type"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Types = append(f.Types, entity.MovementType(strings.ToUpper(t)))
			}
		}
	}
	var err error
	if f.From, err = parseTimeParam(c.Query("from"), false); err != nil {
		return f, fmt.Errorf("from: %w", err)
	}
	if f.To, err = parseTimeParam(c.Query("to"), true); err != nil {
		return f, fmt.Errorf("to: %w", err)
	}
	return f, nil
}

// parseTimeParam acepta RFC3339 o YYYY-MM-DD; con endOfDay la fecha sola cubre el día completo.
func parseTimeParam(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("fecha inválida %q", raw)
	}
	if endOfDay {
		d = d.Add(24*time.Hour - time.Nanosecond)
	}
	return &d, nil
}
