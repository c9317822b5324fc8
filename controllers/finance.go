package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lottoline/bingo-relay/finance"
)

// FinanceController fronts the mocked payment and withdrawal gateways.
// The handlers run on gin's worker goroutines, so the gateway delay never
// stalls the relay's event loop.
type FinanceController struct {
	Payments    finance.PaymentGateway
	Withdrawals finance.WithdrawalGateway
}

type verifyPaymentRequest struct {
	UserID    string  `json:"userId" binding:"required"`
	Reference string  `json:"reference" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
}

func (fc *FinanceController) VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := fc.Payments.VerifyPayment(c.Request.Context(), finance.VerifyPaymentRequest{
		UserID:    req.UserID,
		Reference: req.Reference,
		Amount:    req.Amount,
	})
	if err != nil {
		// Client gave up during the verification delay.
		c.JSON(http.StatusRequestTimeout, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

type withdrawRequest struct {
	UserID  string  `json:"userId" binding:"required"`
	Amount  float64 `json:"amount" binding:"required"`
	Method  string  `json:"method"`
	Account string  `json:"account"`
}

func (fc *FinanceController) Withdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := fc.Withdrawals.Withdraw(c.Request.Context(), finance.WithdrawRequest{
		UserID:  req.UserID,
		Amount:  req.Amount,
		Method:  req.Method,
		Account: req.Account,
	})
	if err != nil {
		c.JSON(http.StatusRequestTimeout, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
