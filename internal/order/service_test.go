package order

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/payment"
	"github.com/CarRentHub/CarRentHub/internal/store"
	"github.com/CarRentHub/CarRentHub/internal/vehicle"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	svc := NewService(NewRepo(gdb), vehicle.NewRepo(gdb), store.NewRepo(gdb), payment.NewLedger(gdb))
	return svc, mock
}

// decimalArg 按数值而不是字符串字面量比较 decimal 入参。
type decimalArg struct{ want decimal.Decimal }

func (d decimalArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	got, err := decimal.NewFromString(s)
	return err == nil && got.Equal(d.want)
}

// expectReturnReads 还车流程开头的五次读取：
// 订单、押金/尾款查重、还车门店、车辆。
func expectReturnReads(mock sqlmock.Sqlmock, endTime time.Time, finalCount, returnStoreID, vehicleStoreID int) {
	mock.ExpectQuery("SELECT \\* FROM `orders` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_no", "user_id", "vehicle_id",
			"pickup_store_id", "return_store_id", "status",
			"start_time", "end_time", "total_amount",
		}).AddRow(1, "ORD-1-TEST", 42, 9, 1, 1, "active",
			endTime.Add(-48*time.Hour), endTime, "400.00"))

	mock.ExpectQuery("SELECT count").
		WithArgs(int64(1), "Deposit").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT count").
		WithArgs(int64(1), "Final").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(finalCount))

	mock.ExpectQuery("SELECT \\* FROM `stores` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "city"}).
			AddRow(returnStoreID, "downtown", "Shenzhen"))

	mock.ExpectQuery("SELECT \\* FROM `vehicles` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "store_id", "status", "daily_rate"}).
			AddRow(9, vehicleStoreID, "rented", "200"))
}

func TestReturnVehicleOnTime(t *testing.T) {
	svc, mock := newMockService(t)

	// 未超期：不落罚金；尾款未结清，落点为已还车
	expectReturnReads(mock, time.Now().Add(2*time.Hour), 0, 1, 1)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `vehicles` SET `status`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, err := svc.ReturnVehicle(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("ReturnVehicle: %v", err)
	}
	if o.Status != StatusReturned {
		t.Fatalf("expected returned, got %s", o.Status)
	}
	if o.ActualReturnTime == nil {
		t.Fatalf("actual return time not recorded")
	}
	// 无 INSERT 预期：任何罚金落账都会在这里报 unexpected call
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReturnVehicleOverdueRecordsPenalty(t *testing.T) {
	svc, mock := newMockService(t)

	// 超期 30 小时 = 2 个计费天，罚金 200 × 1.5 × 2 = 600
	expectReturnReads(mock, time.Now().Add(-30*time.Hour), 0, 1, 1)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `payments`").
		WithArgs(int64(1), decimalArg{want: decimal.NewFromInt(600)}, "", "Penalty",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `vehicles` SET `status`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, err := svc.ReturnVehicle(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("ReturnVehicle: %v", err)
	}
	if o.Status != StatusReturned {
		t.Fatalf("expected returned, got %s", o.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReturnVehicleCrossStoreCompletesWhenFinalPaid(t *testing.T) {
	svc, mock := newMockService(t)

	// 尾款已结清 -> 直接完成；还到 2 号门店而车在 1 号门店 -> 划转
	expectReturnReads(mock, time.Now().Add(2*time.Hour), 1, 2, 1)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `vehicles` SET `status`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `vehicles` SET `store_id`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, err := svc.ReturnVehicle(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("ReturnVehicle: %v", err)
	}
	if o.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", o.Status)
	}
	if o.CompletedAt == nil {
		t.Fatalf("completed_at not set")
	}
	if o.ReturnStoreID != 2 {
		t.Fatalf("return store not rewritten, got %d", o.ReturnStoreID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
