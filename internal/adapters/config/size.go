package config

import (
	"strconv"
	"strings"

	"go.trai.ch/keel/internal/core/domain"
)

var sizeUnits = []struct {
	suffix string
	factor int64
}{
	{"T", 1 << 40},
	{"G", 1 << 30},
	{"M", 1 << 20},
	{"K", 1 << 10},
}

// ParseSize reads a byte count with an optional binary suffix: K, M, G or T,
// optionally followed by "B" or "iB". "0" disables the quota.
func ParseSize(s string) (int64, error) {
	str := strings.ToUpper(strings.TrimSpace(s))
	str = strings.TrimSuffix(strings.TrimSuffix(str, "IB"), "B")

	factor := int64(1)
	for _, u := range sizeUnits {
		if rest, ok := strings.CutSuffix(str, u.suffix); ok {
			str, factor = strings.TrimSpace(rest), u.factor
			break
		}
	}
	n, err := strconv.ParseFloat(str, 64)
	if err != nil || n < 0 {
		return 0, domain.NewError(domain.ErrConfigParseFailed, "size", s)
	}
	return int64(n * float64(factor)), nil
}
