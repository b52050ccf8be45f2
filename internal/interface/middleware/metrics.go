package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hexcontexts/user-service/pkg/metrics"
)

// Metrics records the HTTP request counter, latency histogram and
// in-progress gauge for every request. The route template (c.FullPath) keeps
// the endpoint label's cardinality bounded; unmatched paths collapse into
// one bucket.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.HTTPRequestStarted()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "/unknown"
		}
		metrics.HTTPRequestFinished()
		metrics.RecordHTTPRequest(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
		)
	}
}
