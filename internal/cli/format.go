package cli

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"
)

// FormatYen formats a whole-yen amount with thousands grouping, e.g. 2,500円.
func FormatYen(amount int64) string {
	if amount < 0 {
		return "-" + formatThousands(strconv.FormatUint(uint64(-amount), 10)) + "円"
	}
	return formatThousands(strconv.FormatInt(amount, 10)) + "円"
}

// formatThousands inserts a comma every three digits from the right.
func formatThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	head := n % 3
	if head == 0 {
		head = 3
	}
	result := s[:head]
	for i := head; i < n; i += 3 {
		result += "," + s[i:i+3]
	}
	return result
}

// FormatDateTime formats a timestamp in Japan Standard Time.
func FormatDateTime(t time.Time) string {
	jst, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		jst = time.FixedZone("JST", 9*60*60)
	}
	return t.In(jst).Format("2006-01-02 15:04:05")
}

// FormatDuration formats a short duration for crawl summaries.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// TruncateString truncates a string to maxLen runes with an ellipsis.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
