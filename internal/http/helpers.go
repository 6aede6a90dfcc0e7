package http

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/transfer"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet"
)

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{JSONKeyOK: true, JSONKeyData: data})
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{JSONKeyOK: false, JSONKeyError: err.Error()})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, wallet.ErrNoWallet):
		return http.StatusConflict
	case errors.Is(err, transfer.ErrInvalidParams),
		errors.Is(err, chains.ErrInvalidChainID):
		return http.StatusBadRequest
	case errors.Is(err, chains.ErrUnknownNetwork):
		return http.StatusNotFound
	case errors.Is(err, transfer.ErrEstimateUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
