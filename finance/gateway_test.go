package finance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockPayments_AlwaysSucceedsAtRateOne(t *testing.T) {
	gw := MockPayments{SuccessRate: 1}
	for i := 0; i < 20; i++ {
		res, err := gw.VerifyPayment(context.Background(), VerifyPaymentRequest{UserID: "u1", Reference: "ref-1"})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "ref-1", res.Reference)
	}
}

func TestMockPayments_AlwaysFailsAtRateZero(t *testing.T) {
	gw := MockPayments{SuccessRate: 0}
	res, err := gw.VerifyPayment(context.Background(), VerifyPaymentRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
}

func TestMockWithdrawals_Rates(t *testing.T) {
	ok, err := MockWithdrawals{SuccessRate: 1}.Withdraw(context.Background(), WithdrawRequest{UserID: "u1", Amount: 50})
	require.NoError(t, err)
	assert.True(t, ok.Success)

	ko, err := MockWithdrawals{SuccessRate: 0}.Withdraw(context.Background(), WithdrawRequest{UserID: "u1", Amount: 50})
	require.NoError(t, err)
	assert.False(t, ko.Success)
}

func TestGateways_DelayIsCancellable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := MockPayments{SuccessRate: 1, Delay: time.Minute}.VerifyPayment(ctx, VerifyPaymentRequest{})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = MockWithdrawals{SuccessRate: 1, Delay: time.Minute}.Withdraw(ctx, WithdrawRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
