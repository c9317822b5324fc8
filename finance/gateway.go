package finance

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/lottoline/bingo-relay/utils/logger"
)

// VerifyPaymentRequest carries whatever proof the client submitted; the
// mock gateways never inspect it.
type VerifyPaymentRequest struct {
	UserID    string  `json:"userId"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
}

type WithdrawRequest struct {
	UserID  string  `json:"userId"`
	Amount  float64 `json:"amount"`
	Method  string  `json:"method,omitempty"`
	Account string  `json:"account,omitempty"`
}

type Result struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference,omitempty"`
	Message   string `json:"message,omitempty"`
}

// PaymentGateway verifies a deposit claim. The relay core never implements
// the policy itself; tests inject deterministic fakes.
type PaymentGateway interface {
	VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (Result, error)
}

// WithdrawalGateway settles a withdrawal request.
type WithdrawalGateway interface {
	Withdraw(ctx context.Context, req WithdrawRequest) (Result, error)
}

// MockPayments simulates a verifier: sleep, then succeed at the configured
// rate. No ledger is consulted and nothing is recorded.
type MockPayments struct {
	SuccessRate float64
	Delay       time.Duration
}

func (m MockPayments) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (Result, error) {
	if err := sleep(ctx, m.Delay); err != nil {
		return Result{}, err
	}
	if rand.Float64() < m.SuccessRate {
		return Result{Success: true, Reference: req.Reference, Message: "payment verified"}, nil
	}
	logger.Infof("[Finance] payment verification failed for user %s (ref=%s)", req.UserID, req.Reference)
	return Result{Success: false, Reference: req.Reference, Message: "payment could not be verified"}, nil
}

// MockWithdrawals mirrors MockPayments for the withdrawal side.
type MockWithdrawals struct {
	SuccessRate float64
	Delay       time.Duration
}

func (m MockWithdrawals) Withdraw(ctx context.Context, req WithdrawRequest) (Result, error) {
	if err := sleep(ctx, m.Delay); err != nil {
		return Result{}, err
	}
	if rand.Float64() < m.SuccessRate {
		return Result{Success: true, Message: "withdrawal processed"}, nil
	}
	logger.Infof("[Finance] withdrawal rejected for user %s (amount=%.2f)", req.UserID, req.Amount)
	return Result{Success: false, Message: "withdrawal rejected"}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
