package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/pdf_ziper/internal/convert"
	"github.com/Vovarama1992/pdf_ziper/internal/delivery"
	"github.com/Vovarama1992/pdf_ziper/internal/error_notificator"
	"github.com/Vovarama1992/pdf_ziper/internal/extract"
	"github.com/Vovarama1992/pdf_ziper/internal/infra"
	"github.com/Vovarama1992/pdf_ziper/internal/pdf"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {

	// =========================================================================
	// ENV
	// =========================================================================

	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	maxConcurrent := getEnvInt("MAX_CONCURRENT", convert.DefaultMaxConcurrent)
	boundaryMinLen := getEnvInt("BOUNDARY_MIN_LEN", extract.DefaultMinBoundaryLen)
	minPayloadLen := getEnvInt("MIN_PAYLOAD_FIELD_LEN", convert.DefaultMinPayloadFieldLen)
	fetchTimeout := time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second
	rasterTimeout := time.Duration(getEnvInt("RASTER_TIMEOUT_SECONDS", 120)) * time.Second

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	// =========================================================================
	// INFRASTRUCTURE
	// =========================================================================

	fetcher := infra.NewFetcher(fetchTimeout)
	rasterizer := pdf.NewPopplerRasterizer(rasterTimeout)

	errInfra := error_notificator.NewInfra()
	errService := error_notificator.NewService(errInfra)

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	pdfService := pdf.NewPDFService(rasterizer)

	worker := convert.NewWorker(pdfService, fetcher, extract.Options{
		MinBoundaryLen: boundaryMinLen,
	})
	scheduler := convert.NewScheduler(worker, maxConcurrent)

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	convertHandler := delivery.NewConvertHandler(scheduler, errService, zl, convert.Defaults{
		DPI:                pdf.DefaultDPI,
		MinPayloadFieldLen: minPayloadLen,
	})

	delivery.RegisterRoutes(r, convertHandler)

	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("pong"))
	})

	// =========================================================================
	// START SERVER
	// =========================================================================

	addr := ":" + port
	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + addr,
		Service: "pdf_ziper",
	})

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("bad %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}
