package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	ViewportHeader       = "X-Viewport-Width"
	ContextViewportWidth = "viewportWidth"
)

// ViewportMiddleware records the client's viewport width in CSS pixels, taken from
// the X-Viewport-Width header or a "width" query parameter. Unknown widths are 0.
func ViewportMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ViewportHeader)
		if raw == "" {
			raw = c.Query("width")
		}
		width, err := strconv.Atoi(raw)
		if err != nil || width < 0 {
			width = 0
		}
		c.Set(ContextViewportWidth, width)
		c.Next()
	}
}

func ViewportWidth(c *gin.Context) int {
	return c.GetInt(ContextViewportWidth)
}
