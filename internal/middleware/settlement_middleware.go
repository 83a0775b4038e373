package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/jinseokoh/socrates/internal/settlement"
)

func SettlementMiddleware(engine *settlement.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("settlement_engine", engine)
		c.Next()
	}
}

func GetEngine(c *gin.Context) *settlement.Engine {
	engine, exists := c.Get("settlement_engine")
	if !exists {
		return nil
	}
	return engine.(*settlement.Engine)
}
