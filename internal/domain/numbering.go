package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

type OrderKind string

const (
	OrderKindPurchase OrderKind = "PO"
	OrderKindSales    OrderKind = "SO"
)

const (
	orderSeqDigits = 4
	maxOrderSeq    = 9999
)

var orderNumberPattern = regexp.MustCompile(`^(SO|PO)\d{6}\d{4}$`)

// OrderNumberPrefix is KIND + YYYY + MM for the month of now.
func OrderNumberPrefix(kind OrderKind, now time.Time) string {
	return fmt.Sprintf("%s%04d%02d", kind, now.Year(), int(now.Month()))
}

// NextOrderNumber increments the numeric suffix of the highest existing number
// under prefix. An empty maxExisting starts the sequence at 1.
func NextOrderNumber(prefix, maxExisting string) (string, error) {
	seq := 1
	if maxExisting != "" {
		if len(maxExisting) != len(prefix)+orderSeqDigits || maxExisting[:len(prefix)] != prefix {
			return "", fmt.Errorf("order number %q does not match prefix %s", maxExisting, prefix)
		}
		last, err := strconv.Atoi(maxExisting[len(prefix):])
		if err != nil {
			return "", fmt.Errorf("parse order number %q: %w", maxExisting, err)
		}
		seq = last + 1
	}
	if seq > maxOrderSeq {
		return "", fmt.Errorf("order number sequence exhausted for %s", prefix)
	}
	return fmt.Sprintf("%s%0*d", prefix, orderSeqDigits, seq), nil
}

func IsOrderNumber(value string) bool {
	return orderNumberPattern.MatchString(value)
}
