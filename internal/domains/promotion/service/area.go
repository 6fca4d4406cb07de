package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// parseAreaList tách allow-list JSON thành mã phường (chuỗi toàn số) và tên phường.
// Chấp nhận cả phần tử kiểu số: [1, "002", "Phường Bến Nghé"].
func parseAreaList(raw string) (codes []string, names []string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil, nil
	}

	var items []interface{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, nil, fmt.Errorf("invalid area list: %w", err)
	}

	for _, item := range items {
		switch v := item.(type) {
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if isNumeric(s) {
				codes = append(codes, s)
			} else {
				names = append(names, s)
			}
		case float64:
			codes = append(codes, strconv.FormatInt(int64(v), 10))
		default:
			return nil, nil, fmt.Errorf("invalid area list item: %v", item)
		}
	}
	return codes, names, nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// sameWardCode: "004" và "00004" là cùng một phường
func sameWardCode(a, b string) bool {
	if a == b {
		return true
	}
	if isNumeric(a) && isNumeric(b) {
		return strings.TrimLeft(a, "0") == strings.TrimLeft(b, "0")
	}
	return false
}
