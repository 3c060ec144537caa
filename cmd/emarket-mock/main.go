package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/five82/emarket/internal/logging"
	"github.com/five82/emarket/internal/market"
	"github.com/five82/emarket/internal/mockapi"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", ":3000", "listen address")
	noAddresses := flag.Bool("no-addresses", false, "answer 404 on address endpoints")
	secret := flag.String("secret", os.Getenv("EMARKET_MOCK_SECRET"), "JWT signing secret (optional)")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log, _, err := logging.New(logging.Options{Level: *level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "emarket-mock: %v\n", err)
		return 1
	}
	gin.SetMode(gin.ReleaseMode)

	opts := []mockapi.Option{
		mockapi.WithAddresses(!*noAddresses),
		mockapi.WithLogger(log),
	}
	if *secret != "" {
		opts = append(opts, mockapi.WithSecret(*secret))
	}
	srv := mockapi.New(opts...)
	if err := seed(srv); err != nil {
		log.Error().Err(err).Msg("seed data")
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", *addr).Bool("addresses", !*noAddresses).Msg("mock backend listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("serve")
		return 1
	}
	return 0
}

func seed(srv *mockapi.Server) error {
	ana, err := srv.SeedUser("Ana Souza", "ana@emarket.dev", "secret1")
	if err != nil {
		return err
	}
	bruno, err := srv.SeedUser("Bruno Lima", "bruno@emarket.dev", "secret2")
	if err != nil {
		return err
	}
	srv.SeedProduct(market.Product{
		Title: "Bicicleta aro 29", Price: 1450, Category: "esportes", Condition: "used",
		Description: "Quadro de alumínio, 21 marchas.", UserID: ana,
	})
	srv.SeedProduct(market.Product{
		Title: "Luminária de mesa", Price: 89.9, Category: "casa", Condition: "new", UserID: ana,
	})
	srv.SeedProduct(market.Product{
		Title: "Honda Civic EXL", Price: 98000, Category: market.CategoryVehicle,
		Brand: "Honda", Model: "Civic", Year: 2019, Mileage: 54000, VehicleType: "car", UserID: bruno,
	})
	srv.SeedProduct(market.Product{
		Title: "Violão Yamaha C40", Price: 620, Category: "musica", Condition: "used", UserID: bruno,
	})
	return nil
}
