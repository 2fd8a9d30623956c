package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TenantMiddleware extracts tenant ID from headers
// No default tenant: requests without tenant context are rejected
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// A tenant from the auth token wins over headers
		tenantID := c.GetString("tenant_id")

		if tenantID == "" {
			tenantID = c.GetHeader("X-Tenant-ID")
		}
		if tenantID == "" {
			tenantID = c.GetHeader("X-Vendor-ID")
		}

		if tenantID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TENANT_REQUIRED",
					"message": "Tenant/Vendor ID is required. Include X-Vendor-ID or X-Tenant-ID header.",
				},
			})
			c.Abort()
			return
		}

		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

// sellerDelegateRoles may act for another seller through X-Seller-ID
var sellerDelegateRoles = []string{"admin", "catalog_admin"}

// SellerMiddleware resolves the seller whose catalog is imported or
// exported. Staff may act for a seller through X-Seller-ID; everyone else
// is the seller they authenticated as, whatever the header says.
func SellerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sellerID := c.GetString("user_id")
		if header := c.GetHeader("X-Seller-ID"); header != "" && canActForSeller(c) {
			sellerID = header
		}

		if sellerID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SELLER_REQUIRED",
					"message": "Seller context is required. Authenticate as a seller.",
				},
			})
			c.Abort()
			return
		}

		c.Set("seller_id", sellerID)
		c.Next()
	}
}

func canActForSeller(c *gin.Context) bool {
	roles, ok := c.Get("user_roles")
	if !ok {
		return false
	}
	list, ok := roles.([]string)
	return ok && hasAnyRole(list, sellerDelegateRoles)
}

// GetTenantID retrieves the tenant ID from gin context
func GetTenantID(c *gin.Context) string {
	return c.GetString("tenant_id")
}

// GetSellerID retrieves the seller ID from gin context
func GetSellerID(c *gin.Context) string {
	return c.GetString("seller_id")
}

// GetUserID retrieves the authenticated user ID from gin context
func GetUserID(c *gin.Context) string {
	return c.GetString("user_id")
}
