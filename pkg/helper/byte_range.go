package helper

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRange parses a single "bytes=start-end" range. end is -1 when the
// header leaves it open. An empty header yields 0, -1. Suffix ranges
// ("bytes=-500") are not supported.
func ParseRange(header string) (start, end int64, err error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, -1, nil
	}
	ranges, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(ranges, ",") {
		return 0, 0, fmt.Errorf("unsupported range %q", header)
	}
	from, to, ok := strings.Cut(ranges, "-")
	if !ok || from == "" {
		return 0, 0, fmt.Errorf("unsupported range %q", header)
	}

	start, err = strconv.ParseInt(strings.TrimSpace(from), 10, 64)
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("invalid range start %q", from)
	}
	if strings.TrimSpace(to) == "" {
		return start, -1, nil
	}
	end, err = strconv.ParseInt(strings.TrimSpace(to), 10, 64)
	if err != nil || end < start {
		return 0, 0, fmt.Errorf("invalid range end %q", to)
	}
	return start, end, nil
}
