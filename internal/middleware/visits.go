package middleware

import (
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// VisitCounter counts public page views, skipping requests from an
// authenticated operator so dashboard traffic does not inflate the number.
type VisitCounter struct {
	count atomic.Int64
}

func NewVisitCounter() *VisitCounter {
	return &VisitCounter{}
}

func (v *VisitCounter) Count() int64 {
	return v.count.Load()
}

func (v *VisitCounter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, authenticated := ClaimsFrom(c); !authenticated {
			v.count.Add(1)
		}
		c.Next()
	}
}
