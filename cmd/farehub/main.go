package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"farehub/cfg"
	"farehub/internal/search"
	"farehub/internal/supplier"
	"farehub/pkg/cache"
	"farehub/pkg/db"
	"farehub/pkg/idgen"
	"farehub/pkg/logger"
	"farehub/pkg/supplierclient"
	"farehub/pkg/telemetry"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // postgres driver
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	// ============
	// config
	// ============
	config, errCfg := cfg.Load()
	if errCfg != nil {
		log.Fatal(errCfg)
	}

	// ============
	// logger
	// ============
	zlogger := logger.NewZeroLog(config.AppEnv)

	// ============
	// telemetry
	// ============
	ctx := context.Background()
	if config.Observability.Enabled {
		shutdown, err := telemetry.Init(ctx, &config.Observability, config.AppEnv)
		if err != nil {
			log.Fatal(err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				zlogger.Error("telemetry shutdown failed",
					logger.Field{Key: "err", Value: err})
			}
		}()
	}

	// ============
	// Cache
	// ============
	redisAddr := config.RedisConfig.Host + ":" + config.RedisConfig.Port
	redis := cache.NewRedisCache(redisAddr, config.RedisConfig.Password)

	// ============
	// Postgres
	// ============
	pg := config.Postgres
	pgDSN := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		pg.User,
		pg.Password,
		pg.Host,
		pg.Port,
		pg.DBName,
		pg.SSLMode,
	)
	sqlClient, err := db.NewSQLClient("postgres", pgDSN)
	if err != nil {
		log.Fatal(err)
	}
	supplierStore := supplier.NewSQLStore(sqlClient)

	// ============
	// ID generator
	// ============
	ids, err := idgen.NewSnowflakeGenerator(1)
	if err != nil {
		log.Fatal(err)
	}

	// ============
	// Supplier registry
	// ============
	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}
	registry := supplier.NewRegistry(supplierStore, config.Suppliers, config.DefaultSupplier, zlogger)
	registry.RegisterDriver("kestrel", func(desc supplier.Descriptor) (supplier.Supplier, error) {
		return supplierclient.NewKestrelClient(httpClient, desc, zlogger), nil
	})
	registry.RegisterDriver("voyagea", func(desc supplier.Descriptor) (supplier.Supplier, error) {
		return supplierclient.NewVoyageaClient(desc, zlogger), nil
	})

	// ============
	// Internal Service
	// ============
	searchSvc := search.NewService(registry, redis, ids, config, zlogger)
	searchHandler := search.NewHandler(searchSvc)

	// ============
	// HTTP
	// ============
	r := gin.Default()
	if config.Observability.Enabled {
		r.Use(otelgin.Middleware(config.Observability.ServiceName))
		r.Use(telemetry.TraceLogMiddleware(zlogger))
	}

	searchHandler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%s", config.AppPort)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
