package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/stock-ledger/internal/infrastructure/redis"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/sqlite"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// storage adaptadores del almacén elegido con DB_DRIVER.
type storage struct {
	txRunner  inventory.TxRunner
	records   repository.InventoryRecordRepository
	movements repository.StockMovementRepository
	products  repository.ProductRepository
	locations repository.LocationRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg.DB, log.Component("storage"))
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("conexión al almacén de inventario")
	}
	defer store.close()

	recorder := metrics.NewRecorder("stock_ledger")
	opts := []inventory.Option{inventory.WithRecorder(recorder)}

	// Caché de referencias (opcional): si Redis no responde se arranca sin ella
	if cfg.Redis.Enabled() {
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, caché de referencias desactivada")
		} else {
			defer client.Close()
			opts = append(opts, inventory.WithReferenceCache(infraredis.NewReferenceCache(client, cfg.Redis.TTL)))
		}
	}

	policy := inventory.Policy{
		AllowNegativeStock: cfg.Inventory.AllowNegativeStock,
		MaxRetries:         uint64(cfg.Inventory.MaxRetries),
		InitialBackoff:     cfg.Inventory.InitialBackoff,
		MaxBackoff:         cfg.Inventory.MaxBackoff,
	}
	coreLog := log.Component("inventory")
	processor := inventory.NewAdjustmentProcessor(store.txRunner, policy, coreLog, opts...)
	transfers := inventory.NewTransferCoordinator(processor, store.products, store.locations)
	inventoryUC := inventory.NewInventoryUseCase(processor, store.records, store.movements, store.products, store.locations)

	// PDF: kardex de movimientos
	kardex := infrapdf.NewKardexGenerator(cfg.App.Name)

	httpLog := log.Component("http")
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(httpLog))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", recorder.Handler())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Inventory: inventoryUC,
		Processor: processor,
		Transfers: transfers,
		Kardex:    kardex,
		JWTSecret: cfg.JWT.Secret,
		Log:       httpLog,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg config.DBConfig, log zerolog.Logger) (*storage, error) {
	if cfg.Driver == config.DriverSQLite {
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite listo")
		return &storage{
			txRunner:  sqlite.NewTxRunner(db),
			records:   sqlite.NewInventoryRecordRepository(db),
			movements: sqlite.NewStockMovementRepository(db),
			products:  sqlite.NewProductRepository(db),
			locations: sqlite.NewLocationRepository(db),
			close:     func() { _ = db.Close() },
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema de PostgreSQL aplicado")
	}
	return &storage{
		txRunner:  postgres.NewTxRunner(pool),
		records:   postgres.NewInventoryRecordRepository(pool),
		movements: postgres.NewStockMovementRepository(pool),
		products:  postgres.NewProductRepository(pool),
		locations: postgres.NewLocationRepository(pool),
		close:     pool.Close,
	}, nil
}
