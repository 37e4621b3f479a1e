package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports liveness of the service and its backing stores. The load
// balancer only needs the status code; the body helps a human debugging.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		estadoDB := "ok"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			estadoDB = "error"
		}

		estadoRedis := "ok"
		if rdb.Ping(ctx).Err() != nil {
			estadoRedis = "error"
		}

		code := http.StatusOK
		if estadoDB != "ok" || estadoRedis != "ok" {
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"servicio": "bibliocra",
			"db":       estadoDB,
			"redis":    estadoRedis,
		})
	}
}
