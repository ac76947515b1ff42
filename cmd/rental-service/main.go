package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/category"
	"github.com/CarRentHub/CarRentHub/internal/common/config"
	"github.com/CarRentHub/CarRentHub/internal/common/db"
	"github.com/CarRentHub/CarRentHub/internal/common/logger"
	"github.com/CarRentHub/CarRentHub/internal/common/middleware"
	"github.com/CarRentHub/CarRentHub/internal/common/server"
	"github.com/CarRentHub/CarRentHub/internal/common/tracing"
	"github.com/CarRentHub/CarRentHub/internal/maintenance"
	"github.com/CarRentHub/CarRentHub/internal/order"
	"github.com/CarRentHub/CarRentHub/internal/payment"
	"github.com/CarRentHub/CarRentHub/internal/report"
	"github.com/CarRentHub/CarRentHub/internal/store"
	"github.com/CarRentHub/CarRentHub/internal/user"
	"github.com/CarRentHub/CarRentHub/internal/vehicle"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "configs/rental-service.json", "config file path")
	consulAddr := flag.String("consul-config", "", "load config from Consul KV, format host:port:key")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *consulAddr)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		logrus.Fatalf("init logger: %v", err)
	}

	_, closer, err := tracing.InitTracer(cfg.Server.Name, cfg.Jaeger.Endpoint, cfg.Jaeger.Sampler)
	if err != nil {
		log.Warnf("init tracer: %v", err)
	} else {
		defer closer.Close()
	}

	gdb, err := db.NewMySQL(
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.User, cfg.Database.Password, cfg.Database.Database,
		cfg.Database.MaxIdle, cfg.Database.MaxOpen,
	)
	if err != nil {
		log.Errorf("connect database: %v", err)
		os.Exit(1)
	}
	if err := gdb.AutoMigrate(
		&user.User{},
		&store.Store{},
		&category.Category{},
		&vehicle.Vehicle{},
		&order.Order{},
		&payment.Payment{},
		&maintenance.Record{},
	); err != nil {
		log.Errorf("auto migrate: %v", err)
		os.Exit(1)
	}

	// 组装各层
	userRepo := user.NewRepo(gdb)
	storeRepo := store.NewRepo(gdb)
	categoryRepo := category.NewRepo(gdb)
	vehicleRepo := vehicle.NewRepo(gdb)
	orderRepo := order.NewRepo(gdb)
	ledger := payment.NewLedger(gdb)
	maintRepo := maintenance.NewRepo(gdb)

	userSvc := user.NewService(userRepo, cfg.Auth)
	orderSvc := order.NewService(orderRepo, vehicleRepo, storeRepo, ledger)
	maintSvc := maintenance.NewService(maintRepo, vehicleRepo)

	userH := user.NewHandler(userSvc, log)
	storeH := store.NewHandler(storeRepo, log)
	categoryH := category.NewHandler(categoryRepo, log)
	vehicleH := vehicle.NewHandler(vehicleRepo, log)
	orderH := order.NewHandler(orderSvc, log)
	paymentH := payment.NewHandler(ledger, orderSvc, log)
	maintH := maintenance.NewHandler(maintSvc, log)
	reportH := report.NewHandler(gdb, log)

	r := chi.NewRouter()
	r.Use(server.JWTAuth(cfg.Auth, log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		admin := server.RequireRole("admin")

		r.Post("/auth/register", userH.Register)
		r.Post("/auth/login", userH.Login)
		r.Get("/users/me", userH.Me)
		r.With(admin).Get("/users", userH.ListAll)

		r.Get("/stores", storeH.List)
		r.Get("/stores/{id}", storeH.Get)
		r.With(admin).Post("/stores", storeH.Create)
		r.With(admin).Put("/stores/{id}", storeH.Update)

		r.Get("/categories", categoryH.List)
		r.Get("/categories/{id}", categoryH.Get)
		r.With(admin).Post("/categories", categoryH.Create)

		r.Get("/vehicles", vehicleH.List)
		r.Get("/vehicles/available", vehicleH.SearchAvailable)
		r.Get("/vehicles/{id}", vehicleH.Get)
		r.With(admin).Post("/vehicles", vehicleH.Create)
		r.With(admin).Put("/vehicles/{id}", vehicleH.Update)
		r.With(admin).Put("/vehicles/{id}/status", vehicleH.SetStatus)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderH.Create)
			r.Get("/quote", orderH.Quote)
			r.Get("/my", orderH.ListMine)
			r.Get("/no/{orderNo}", orderH.GetByNo)
			r.Get("/{id}", orderH.Get)
			r.Post("/{id}/return", orderH.Return)
			r.Post("/{id}/cancel", orderH.Cancel)
			r.With(admin).Get("/", orderH.ListAll)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/deposit", orderH.PayDeposit)
			r.Post("/final", orderH.PayFinal)
			r.Get("/order/{orderId}", paymentH.GetByOrder)
			r.With(admin).Post("/penalty", orderH.PayPenalty)
			r.With(admin).Get("/all", paymentH.ListAll)
		})

		r.Route("/maintenance", func(r chi.Router) {
			r.Use(admin)
			r.Post("/", maintH.Open)
			r.Post("/{id}/close", maintH.Close)
			r.Get("/vehicle/{vehicleId}", maintH.History)
		})

		r.With(admin).Get("/reports/dashboard", reportH.Dashboard)
	})

	limiter := middleware.NewTokenBucket(200, 100)
	if err := server.RunHTTPServer(cfg, log, r,
		server.WithRateLimiter(limiter),
		server.WithShutdownTimeout(15*time.Second),
		server.WithReflection(false),
	); err != nil {
		log.Errorf("server exited: %v", err)
		os.Exit(1)
	}
}

// loadConfig 优先走 Consul KV（host:port:key），未指定时读本地 JSON 文件。
func loadConfig(path, consulSpec string) (*config.Config, error) {
	if consulSpec == "" {
		return config.LoadConfig(path)
	}
	parts := strings.SplitN(consulSpec, ":", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid -consul-config %q, want host:port:key", consulSpec)
	}
	port, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid consul port %q", parts[1])
	}
	return config.LoadConfigFromConsulKV(config.ConsulConfig{Host: parts[0], Port: port}, parts[2])
}
