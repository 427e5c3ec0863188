// api/middleware/company_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tablero-hq/tablero-backend/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// CompanyHeader carries the tenant identifier resolved by the upstream
// auth layer. This service never performs authorization itself; it only
// scopes every operation to the company it is handed.
const CompanyHeader = "X-Company-ID"

// CompanyKey is the gin context key the handlers read.
const CompanyKey = "companyId"

// CompanyMiddleware requires the tenant header on every request and stores it
// in the request context.
func CompanyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := strings.TrimSpace(c.GetHeader(CompanyHeader))
		if companyID == "" {
			customLog.Warnf("CompanyMiddleware: Missing %s header on %s", CompanyHeader, c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing " + CompanyHeader + " header."})
			return
		}
		c.Set(CompanyKey, companyID)
		c.Next()
	}
}
