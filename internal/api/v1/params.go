package v1

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/analytics"
)

const queryDateLayout = "2006-01-02"

// dateRange 解析 startDate / endDate（YYYY-MM-DD）
func dateRange(c *gin.Context) (analytics.DateRange, error) {
	var r analytics.DateRange
	for _, p := range []struct {
		key string
		dst **time.Time
	}{{"startDate", &r.Start}, {"endDate", &r.End}} {
		v := c.Query(p.key)
		if v == "" {
			continue
		}
		t, err := time.ParseInLocation(queryDateLayout, v, time.UTC)
		if err != nil {
			return r, fmt.Errorf("invalid %s, expected YYYY-MM-DD", p.key)
		}
		*p.dst = &t
	}
	if r.Start != nil && r.End != nil && r.End.Before(*r.Start) {
		return r, fmt.Errorf("endDate must not be before startDate")
	}
	return r, nil
}

// intQuery 解析整数参数，缺省时返回 def
func intQuery(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
