package order

import (
	"testing"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusActive, StatusReturned, true},
		{StatusActive, StatusCompleted, true},
		{StatusActive, StatusCancelled, true},
		{StatusReturned, StatusCompleted, true},
		{StatusReturned, StatusCancelled, false},
		{StatusReturned, StatusActive, false},
		{StatusCompleted, StatusActive, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusActive, false},
		// 同状态视为幂等
		{StatusActive, StatusActive, true},
		{StatusCompleted, StatusCompleted, true},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestApplyTransitionSetsTimestamps(t *testing.T) {
	now := time.Now()

	o := &Order{Status: StatusActive}
	if err := ApplyTransition(o, StatusCompleted, now); err != nil {
		t.Fatalf("ApplyTransition to completed: %v", err)
	}
	if o.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", o.Status)
	}
	if o.CompletedAt == nil || !o.CompletedAt.Equal(now) {
		t.Fatalf("CompletedAt = %v, want %v", o.CompletedAt, now)
	}

	o = &Order{Status: StatusActive}
	if err := ApplyTransition(o, StatusCancelled, now); err != nil {
		t.Fatalf("ApplyTransition to cancelled: %v", err)
	}
	if o.CancelledAt == nil || !o.CancelledAt.Equal(now) {
		t.Fatalf("CancelledAt = %v, want %v", o.CancelledAt, now)
	}
}

func TestApplyTransitionRejectsIllegal(t *testing.T) {
	o := &Order{Status: StatusCancelled}
	err := ApplyTransition(o, StatusReturned, time.Now())
	if errs.CodeOf(err) != errs.CodeInvalidState {
		t.Fatalf("err = %v, want INVALID_STATE", err)
	}
	if o.Status != StatusCancelled {
		t.Fatalf("status changed to %s on rejected transition", o.Status)
	}
}

func TestGuardPayDeposit(t *testing.T) {
	if err := GuardPayDeposit(&Order{Status: StatusActive}, LedgerView{}); err != nil {
		t.Fatalf("deposit on fresh active order: %v", err)
	}

	err := GuardPayDeposit(&Order{ID: 7, Status: StatusActive}, LedgerView{HasDeposit: true})
	if errs.CodeOf(err) != errs.CodeDuplicatePayment {
		t.Fatalf("duplicate deposit err = %v, want DUPLICATE_PAYMENT", err)
	}

	err = GuardPayDeposit(&Order{Status: StatusCancelled}, LedgerView{})
	if errs.CodeOf(err) != errs.CodeInvalidState {
		t.Fatalf("deposit on cancelled order err = %v, want INVALID_STATE", err)
	}
}

func TestGuardPayFinal(t *testing.T) {
	// 押金是尾款的前置
	err := GuardPayFinal(&Order{Status: StatusActive}, LedgerView{})
	if errs.CodeOf(err) != errs.CodePreconditionNotMet {
		t.Fatalf("final without deposit err = %v, want PRECONDITION_NOT_MET", err)
	}

	if err := GuardPayFinal(&Order{Status: StatusActive}, LedgerView{HasDeposit: true}); err != nil {
		t.Fatalf("final on active order with deposit: %v", err)
	}
	// 已还车订单允许补交尾款
	if err := GuardPayFinal(&Order{Status: StatusReturned}, LedgerView{HasDeposit: true}); err != nil {
		t.Fatalf("final on returned order with deposit: %v", err)
	}

	err = GuardPayFinal(&Order{Status: StatusActive}, LedgerView{HasDeposit: true, HasFinal: true})
	if errs.CodeOf(err) != errs.CodeDuplicatePayment {
		t.Fatalf("duplicate final err = %v, want DUPLICATE_PAYMENT", err)
	}

	err = GuardPayFinal(&Order{Status: StatusCompleted}, LedgerView{HasDeposit: true})
	if errs.CodeOf(err) != errs.CodeInvalidState {
		t.Fatalf("final on completed order err = %v, want INVALID_STATE", err)
	}
}

func TestGuardReturn(t *testing.T) {
	err := GuardReturn(&Order{Status: StatusActive}, LedgerView{})
	if errs.CodeOf(err) != errs.CodePreconditionNotMet {
		t.Fatalf("return without deposit err = %v, want PRECONDITION_NOT_MET", err)
	}

	if err := GuardReturn(&Order{Status: StatusActive}, LedgerView{HasDeposit: true}); err != nil {
		t.Fatalf("return with deposit: %v", err)
	}

	err = GuardReturn(&Order{Status: StatusReturned}, LedgerView{HasDeposit: true})
	if errs.CodeOf(err) != errs.CodeInvalidState {
		t.Fatalf("double return err = %v, want INVALID_STATE", err)
	}
}

func TestGuardCancel(t *testing.T) {
	if err := GuardCancel(&Order{Status: StatusActive}); err != nil {
		t.Fatalf("cancel active order: %v", err)
	}
	for _, s := range []Status{StatusReturned, StatusCompleted, StatusCancelled} {
		err := GuardCancel(&Order{Status: s})
		if errs.CodeOf(err) != errs.CodeInvalidState {
			t.Fatalf("cancel %s order err = %v, want INVALID_STATE", s, err)
		}
	}
}

func TestReturnTarget(t *testing.T) {
	if got := returnTarget(LedgerView{HasDeposit: true}); got != StatusReturned {
		t.Fatalf("returnTarget without final = %s, want returned", got)
	}
	if got := returnTarget(LedgerView{HasDeposit: true, HasFinal: true}); got != StatusCompleted {
		t.Fatalf("returnTarget with final = %s, want completed", got)
	}
}
