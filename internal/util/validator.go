package util

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// 客户端日期支持的格式，越精确越靠前
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ValidateUsername 验证用户名（也可以是邮箱）
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is empty")
	}
	if len(username) > 255 {
		return fmt.Errorf("username too long, max 255 characters")
	}
	for _, r := range username {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("username must not contain spaces")
		}
	}
	return nil
}

// ValidatePassword 只拒绝空密码和超长密码（bcrypt 超过 72 字节会截断）
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is empty")
	}
	if len(password) > 72 {
		return fmt.Errorf("password too long, max 72 bytes")
	}
	return nil
}

// ValidateDate 验证日期格式（必须为 YYYY-MM-DD）
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	_, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}

// ParseDate 解析 RFC3339 / YYYY-MM-DDTHH:MM:SS / YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

// ToCents 金额转成分，四舍五入
// 调用方要先限制金额上限，超出 int64 的分值会溢出
func ToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FormatCents 分转成两位小数的字符串，比如 12345 -> "123.45"
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
