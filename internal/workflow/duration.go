package workflow

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatDuration 把毫秒格式化为 "42s" 或 "3m 5s"，不足一秒的部分舍去
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	if ms < 60000 {
		return fmt.Sprintf("%ds", ms/1000)
	}
	seconds := ms / 1000
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

// ParseDurationSeconds 解析 FormatDuration 的输出，返回总秒数
func ParseDurationSeconds(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	var total int64
	for _, part := range strings.Fields(s) {
		if len(part) < 2 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		unit := part[len(part)-1]
		n, err := strconv.ParseInt(part[:len(part)-1], 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		switch unit {
		case 'm':
			total += n * 60
		case 's':
			total += n
		default:
			return 0, fmt.Errorf("invalid duration unit in %q", s)
		}
	}
	return total, nil
}
