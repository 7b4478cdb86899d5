package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SerialEpoch 电子表格序列日期纪元（序列 0 = 1899-12-30 UTC，序列 1 = 1899-12-31，序列 2 = 1900-01-01）
var SerialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// MillisPerDay 每天的毫秒数
const MillisPerDay = 86_400_000

// 序列号可表示的范围：0100-01-01 .. 9999-12-31
const (
	minSerial = -657434.0
	maxSerial = 2958465.0
)

// TimePolicy 时间文本无法按 HH:MM[:SS] 识别时的处理策略
type TimePolicy int

const (
	// TimePermissive 回退到通用日期解析
	TimePermissive TimePolicy = iota
	// TimeStrict 直接判定为空
	TimeStrict
)

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)

// dateLayouts 通用日期解析支持的格式（按顺序尝试，月/日歧义时按月在前）
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"1/2/06",
	"1-2-2006",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Mon Jan 2 2006",
	"Mon Jan 2 2006 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

// clockLayouts 仅含时刻的格式，解析结果需落到作业日期上
var clockLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"3:04:05 PM",
	"3:04:05PM",
	"3 PM",
	"3PM",
	"15:04:05.000",
}

// SerialToTime 序列日期（可含小数部分）转换为 UTC 时间
func SerialToTime(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || serial < minSerial || serial > maxSerial {
		return time.Time{}, false
	}
	days := math.Floor(serial)
	ms := math.Round((serial - days) * MillisPerDay)
	return SerialEpoch.AddDate(0, 0, int(days)).Add(time.Duration(ms) * time.Millisecond), true
}

// ParseDateString 通用日期解析，无法识别返回 false
func ParseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseClockString 解析仅含时刻的文本（"10:30 PM" 等）
func parseClockString(s string) (h, m, sec int, ok bool) {
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), t.Second(), true
		}
	}
	return 0, 0, 0, false
}

// CoerceDate 将单元格解释为绝对日期
func CoerceDate(c Cell) (time.Time, bool) {
	switch c.Kind {
	case CellInstant:
		if c.Instant.IsZero() {
			return time.Time{}, false
		}
		return c.Instant.UTC(), true
	case CellNumber:
		return SerialToTime(c.Number)
	case CellText:
		return ParseDateString(c.Text)
	}
	return time.Time{}, false
}

// DateOnly 截取 UTC 零点
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CombineDateAndTime 将时间值落到作业日期上
func CombineDateAndTime(date time.Time, c Cell, policy TimePolicy) (time.Time, bool) {
	if date.IsZero() {
		return time.Time{}, false
	}
	midnight := DateOnly(date)

	switch c.Kind {
	case CellInstant:
		if c.Instant.IsZero() {
			return time.Time{}, false
		}
		return atClock(midnight, c.Instant.UTC().Hour(), c.Instant.UTC().Minute(), c.Instant.UTC().Second()), true

	case CellNumber:
		n := c.Number
		if math.IsNaN(n) || n < 0 {
			return time.Time{}, false
		}
		if n < 1 {
			ms := math.Round(n * MillisPerDay)
			return midnight.Add(time.Duration(ms) * time.Millisecond), true
		}
		// 带日期部分的序列号（日期时间格式的单元格），只取时刻
		t, ok := SerialToTime(n)
		if !ok {
			return time.Time{}, false
		}
		return atClock(midnight, t.Hour(), t.Minute(), t.Second()), true

	case CellText:
		s := strings.TrimSpace(c.Text)
		if m := clockPattern.FindStringSubmatch(s); m != nil {
			h, _ := strconv.Atoi(m[1])
			mi, _ := strconv.Atoi(m[2])
			sec := 0
			if m[3] != "" {
				sec, _ = strconv.Atoi(m[3])
			}
			if h > 23 || mi > 59 || sec > 59 {
				return time.Time{}, false
			}
			return atClock(midnight, h, mi, sec), true
		}
		if policy == TimeStrict {
			return time.Time{}, false
		}
		if h, mi, sec, ok := parseClockString(s); ok {
			return atClock(midnight, h, mi, sec), true
		}
		return ParseDateString(s)
	}
	return time.Time{}, false
}

func atClock(midnight time.Time, h, m, s int) time.Time {
	return midnight.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second)
}
