package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/client"
	"github.com/CarRentHub/CarRentHub/internal/common/config"
	"github.com/CarRentHub/CarRentHub/internal/common/discovery"
	"github.com/CarRentHub/CarRentHub/internal/common/logger"
	"github.com/CarRentHub/CarRentHub/internal/user"
	"github.com/sirupsen/logrus"
)

// 命令行工具：走 Orchestrator 完成完整的租车流程。
//
//	rental-cli -user alice -pass secret rent -vehicle 3 -pickup 1 -return 2 -start ... -end ...
//	rental-cli -user alice -pass secret deposit -order 5
//	rental-cli -user alice -pass secret checkout -order 5
//	rental-cli -user alice -pass secret giveback -order 5 -store 2
func main() {
	configPath := flag.String("config", "configs/rental-cli.json", "config file path")
	username := flag.String("user", "", "username")
	password := flag.String("pass", "", "password")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		logrus.Fatalf("init logger: %v", err)
	}

	// 未配置 base_url 时走 Consul 服务发现
	if cfg.Client.BaseURL == "" {
		consulClient, err := discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port)
		if err != nil {
			logrus.Fatalf("connect consul: %v", err)
		}
		addr, err := discovery.ResolveService(consulClient, "rental-service")
		if err != nil {
			logrus.Fatalf("resolve rental-service: %v", err)
		}
		cfg.Client.BaseURL = "http://" + addr
	}

	api := client.New(cfg.Client, log)
	orch := client.NewOrchestrator(api, log)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	cmd, rest := args[0], args[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// register 不需要会话
	if cmd == "register" {
		runRegister(ctx, api, rest)
		return
	}

	sess, err := api.Login(ctx, *username, *password)
	if err != nil {
		fail("login: %v", err)
	}
	fmt.Printf("logged in as %s (role=%s)\n", sess.Username, sess.Role)

	switch cmd {
	case "search":
		runSearch(ctx, api, sess, rest)
	case "rent":
		runRent(ctx, orch, sess, rest)
	case "deposit":
		runDeposit(ctx, orch, sess, rest)
	case "checkout":
		runCheckout(ctx, orch, sess, rest)
	case "giveback":
		runGiveback(ctx, orch, sess, rest)
	case "cancel":
		runCancel(ctx, orch, sess, rest)
	case "show":
		runShow(ctx, orch, sess, rest)
	case "my":
		runMy(ctx, api, sess)
	case "dashboard":
		runDashboard(ctx, api, sess)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: rental-cli [-config path] [-user u -pass p] <command> [flags]

commands:
  register  -username -password [-nickname -phone -email]
  search    -store -start -end
  rent      -vehicle -pickup -return -start -end
  deposit   -order [-method]
  checkout  -order [-method]      pay the final amount
  giveback  -order -store         return the vehicle
  cancel    -order
  show      -order
  my
  dashboard                       (admin only)

times use RFC3339, e.g. 2026-09-01T10:00:00+08:00`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func parseTime(s, name string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		fail("invalid %s time %q: %v", name, s, err)
	}
	return t
}

func runRegister(ctx context.Context, api *client.Client, args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	nickname := fs.String("nickname", "", "nickname")
	phone := fs.String("phone", "", "phone")
	email := fs.String("email", "", "email")
	_ = fs.Parse(args)

	u, err := api.Register(ctx, user.RegisterInput{
		Username: *username,
		Password: *password,
		Nickname: *nickname,
		Phone:    *phone,
		Email:    *email,
	})
	if err != nil {
		fail("register: %v", err)
	}
	fmt.Printf("registered user #%d %s\n", u.ID, u.Username)
}

func runSearch(ctx context.Context, api *client.Client, sess client.Session, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	storeID := fs.Int64("store", 0, "store id")
	start := fs.String("start", "", "start time (RFC3339)")
	end := fs.String("end", "", "end time (RFC3339)")
	_ = fs.Parse(args)

	vehicles, err := api.SearchVehicles(ctx, sess, *storeID,
		parseTime(*start, "start"), parseTime(*end, "end"))
	if err != nil {
		fail("search: %v", err)
	}
	for _, v := range vehicles {
		fmt.Printf("#%-4d %-10s %-12s %-10s %8s/day\n",
			v.ID, v.Brand, v.Model, v.PlateNumber, v.DailyRate.StringFixed(2))
	}
	fmt.Printf("%d vehicle(s) available\n", len(vehicles))
}

func runRent(ctx context.Context, orch *client.Orchestrator, sess client.Session, args []string) {
	fs := flag.NewFlagSet("rent", flag.ExitOnError)
	vehicleID := fs.Int64("vehicle", 0, "vehicle id")
	pickup := fs.Int64("pickup", 0, "pickup store id")
	ret := fs.Int64("return", 0, "return store id")
	start := fs.String("start", "", "start time (RFC3339)")
	end := fs.String("end", "", "end time (RFC3339)")
	_ = fs.Parse(args)

	res, err := orch.Rent(ctx, sess, client.RentInput{
		VehicleID:     *vehicleID,
		PickupStoreID: *pickup,
		ReturnStoreID: *ret,
		StartTime:     parseTime(*start, "start"),
		EndTime:       parseTime(*end, "end"),
	})
	if err != nil {
		fail("rent: %v", err)
	}
	fmt.Printf("order %s created (#%d)\n", res.View.Order.OrderNo, res.View.Order.ID)
	fmt.Printf("  %d day(s), deposit %s, total %s\n",
		res.Quote.Days, res.Quote.Deposit.StringFixed(2), res.Quote.Total.StringFixed(2))
}

func runDeposit(ctx context.Context, orch *client.Orchestrator, sess client.Session, args []string) {
	fs := flag.NewFlagSet("deposit", flag.ExitOnError)
	orderID := fs.Int64("order", 0, "order id")
	method := fs.String("method", "alipay", "pay method")
	_ = fs.Parse(args)

	view, err := orch.PayDeposit(ctx, sess, *orderID, *method)
	if err != nil {
		fail("pay deposit: %v", err)
	}
	printView(view)
}

func runCheckout(ctx context.Context, orch *client.Orchestrator, sess client.Session, args []string) {
	fs := flag.NewFlagSet("checkout", flag.ExitOnError)
	orderID := fs.Int64("order", 0, "order id")
	method := fs.String("method", "alipay", "pay method")
	_ = fs.Parse(args)

	view, err := orch.PayFinal(ctx, sess, *orderID, *method)
	if err != nil {
		fail("pay final: %v", err)
	}
	printView(view)
}

func runGiveback(ctx context.Context, orch *client.Orchestrator, sess client.Session, args []string) {
	fs := flag.NewFlagSet("giveback", flag.ExitOnError)
	orderID := fs.Int64("order", 0, "order id")
	storeID := fs.Int64("store", 0, "return store id")
	_ = fs.Parse(args)

	// 超期预估仅作提示，实际罚金以服务端落账为准
	if view, err := orch.Refresh(ctx, sess, *orderID); err == nil {
		if v, err := orch.API().GetVehicle(ctx, sess, view.Order.VehicleID); err == nil {
			if est := orch.EstimatePenalty(view, v.DailyRate, time.Now()); est.IsPositive() {
				fmt.Printf("warning: overdue, estimated penalty %s\n", est.StringFixed(2))
			}
		}
	}

	view, err := orch.Return(ctx, sess, *orderID, *storeID)
	if err != nil {
		fail("return vehicle: %v", err)
	}
	printView(view)
}

func runCancel(ctx context.Context, orch *client.Orchestrator, sess client.Session, args []string) {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	orderID := fs.Int64("order", 0, "order id")
	_ = fs.Parse(args)

	view, err := orch.Cancel(ctx, sess, *orderID)
	if err != nil {
		fail("cancel: %v", err)
	}
	printView(view)
}

func runShow(ctx context.Context, orch *client.Orchestrator, sess client.Session, args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	orderID := fs.Int64("order", 0, "order id")
	_ = fs.Parse(args)

	view, err := orch.Refresh(ctx, sess, *orderID)
	if err != nil {
		fail("show: %v", err)
	}
	printView(view)
}

func runMy(ctx context.Context, api *client.Client, sess client.Session) {
	orders, err := api.ListMyOrders(ctx, sess)
	if err != nil {
		fail("list orders: %v", err)
	}
	for _, o := range orders {
		fmt.Printf("#%-4d %-24s %-10s(%s) total %8s  %s -> %s\n",
			o.ID, o.OrderNo, o.Status, o.Status.Label(), o.TotalAmount.StringFixed(2),
			o.StartTime.Format("2006-01-02 15:04"), o.EndTime.Format("2006-01-02 15:04"))
	}
	fmt.Printf("%d order(s)\n", len(orders))
}

func runDashboard(ctx context.Context, api *client.Client, sess client.Session) {
	if !sess.IsAdmin() {
		fail("dashboard requires the admin role")
	}
	d, err := api.GetDashboard(ctx, sess)
	if err != nil {
		fail("dashboard: %v", err)
	}
	fmt.Printf("vehicles: %d total / %d available / %d rented / %d in maintenance\n",
		d.TotalVehicles, d.AvailableVehicles, d.RentedVehicles, d.MaintenanceVehicles)
	fmt.Printf("orders:   %d total / %d active / %d returned / %d completed / %d cancelled\n",
		d.TotalOrders, d.ActiveOrders, d.ReturnedOrders, d.CompletedOrders, d.CancelledOrders)
	fmt.Printf("users:    %d\n", d.TotalUsers)
}

func printView(view *client.OrderView) {
	o := view.Order
	closed := ""
	if o.Status.Terminal() {
		closed = " [closed]"
	}
	fmt.Printf("order %s (#%d) status=%s%s total=%s\n",
		o.OrderNo, o.ID, o.Status, closed, o.TotalAmount.StringFixed(2))
	if o.ActualReturnTime != nil {
		fmt.Printf("  returned at %s\n", o.ActualReturnTime.Format("2006-01-02 15:04"))
	}
	for _, p := range view.Payments {
		fmt.Printf("  %-8s %10s  %s\n", p.PayType, p.Amount.StringFixed(2),
			p.PayTime.Format("2006-01-02 15:04"))
	}
	fmt.Printf("  paid %s\n", view.TotalPaid().StringFixed(2))
}
