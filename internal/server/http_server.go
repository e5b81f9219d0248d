package server

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"clinic-booking-service/internal/config"
)

func Run(router *gin.Engine) {
	addr := ":" + config.AppConfig.AppPort
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	if err := router.Run(addr); err != nil && err != http.ErrServerClosed {
		panic(err)
	}
}
