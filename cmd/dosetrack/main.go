package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dosetrack/internal/auth"
	"dosetrack/internal/config"
	"dosetrack/internal/db"
	httpx "dosetrack/internal/http"
	"dosetrack/internal/medicine"
)

func main() {
	cfg, _ := config.Load()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal(err)
	}

	// optional drug-catalog seed
	if cfg.MedicineCSV != "" {
		medSvc := &medicine.Service{DB: gdb}
		n, err := medSvc.ImportCSV(context.Background(), cfg.MedicineCSV)
		if err != nil {
			log.Fatalf("medicine catalog import: %v", err)
		}
		log.Printf("medicine catalog: %d rows imported from %s\n", n, cfg.MedicineCSV)
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	r := httpx.NewRouter(cfg, gdb, jwtSvc)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
