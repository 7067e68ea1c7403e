package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/airwaves-fm/airwaves-api/internal/middleware"
	"github.com/airwaves-fm/airwaves-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// pageParams reads ?page and ?limit with the repository defaults.
func pageParams(c *gin.Context) (page, size int) {
	page, size = 1, 20
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		size = v
	}
	return page, size
}
