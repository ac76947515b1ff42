package payment

import (
	"context"
	"testing"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockLedger(t *testing.T) (*Ledger, sqlmock.Sqlmock) {
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
	return NewLedger(gdb), mock
}

func TestRecordRejectsNonPositiveAmount(t *testing.T) {
	ledger, mock := newMockLedger(t)

	_, err := ledger.Record(context.Background(), 1, TypeDeposit, decimal.Zero, "Alipay")
	if !errs.Is(err, errs.CodeInvalidAmount) {
		t.Fatalf("expected INVALID_AMOUNT, got %v", err)
	}
	_, err = ledger.Record(context.Background(), 1, TypeFinal, decimal.NewFromInt(-5), "Alipay")
	if !errs.Is(err, errs.CodeInvalidAmount) {
		t.Fatalf("expected INVALID_AMOUNT, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected db access: %v", err)
	}
}

func TestRecordRejectsDuplicateDeposit(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count").
		WithArgs(int64(7), "Deposit").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := ledger.Record(context.Background(), 7, TypeDeposit, decimal.NewFromInt(600), "Alipay")
	if !errs.Is(err, errs.CodeDuplicatePayment) {
		t.Fatalf("expected DUPLICATE_PAYMENT, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordAllowsRepeatedPenalty(t *testing.T) {
	ledger, mock := newMockLedger(t)

	// Penalty 不做查重，直接进 INSERT
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `payments`").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	p, err := ledger.Record(context.Background(), 7, TypePenalty, decimal.NewFromInt(150), "")
	if err != nil {
		t.Fatalf("Record penalty: %v", err)
	}
	if p.PayType != TypePenalty {
		t.Fatalf("expected penalty type, got %s", p.PayType)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHasPayment(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectQuery("SELECT count").
		WithArgs(int64(3), "Final").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	has, err := ledger.HasPayment(context.Background(), 3, TypeFinal)
	if err != nil {
		t.Fatalf("HasPayment: %v", err)
	}
	if has {
		t.Fatalf("expected no final payment")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListByOrderOrdersByPayTime(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectQuery("SELECT \\* FROM `payments` WHERE order_id = \\? ORDER BY pay_time ASC").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "amount", "pay_type"}).
			AddRow(1, 3, "600.00", "Deposit").
			AddRow(2, 3, "400.00", "Final"))

	payments, err := ledger.ListByOrder(context.Background(), 3)
	if err != nil {
		t.Fatalf("ListByOrder: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(payments))
	}
	if payments[0].PayType != TypeDeposit || payments[1].PayType != TypeFinal {
		t.Fatalf("unexpected order: %s, %s", payments[0].PayType, payments[1].PayType)
	}
}
