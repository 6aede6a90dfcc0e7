package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	AllowedOrigins []string
	// LoopbackOnly rejects non-local peers.
	LoopbackOnly bool
}

func NewRouter(h *Handler, opt RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())

	if len(opt.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  opt.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", HeaderRequestID},
			ExposeHeaders: []string{HeaderRequestID},
		}))
	}
	if opt.LoopbackOnly {
		r.Use(loopbackOnly())
	}

	r.GET("/healthz", h.Health)

	api := r.Group("/wallet")
	{
		api.GET("/accounts", h.Accounts)
		api.GET("/balance", h.Balance)

		api.POST("/assets", h.Assets)
		api.GET("/assets/registry", h.Registry)
		api.POST("/assets/registry/add", h.RegistryAdd)
		api.POST("/assets/registry/remove", h.RegistryRemove)

		api.POST("/transfer/estimate", h.Estimate)
		api.POST("/transfer/send", h.Send)

		api.POST("/sign/message", h.SignMessage)
		api.POST("/sign/typed", h.SignTyped)

		api.GET("/network", h.Network)
		api.POST("/network/switch", h.SwitchNetwork)

		api.GET("/history", h.History)
		api.GET("/nfts", h.NFTs)
	}

	return r
}
