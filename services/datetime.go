package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/caliper-tracking/caliper-tracking-backend/errors"
	"github.com/relvacode/iso8601"
)

// fractionRe matches the seconds fraction, with either separator ISO-8601 allows.
var fractionRe = regexp.MustCompile(`(T\d{2}:\d{2}:\d{2})[.,](\d+)`)

// UTCDatetimeLayout is the canonical event timestamp: UTC, millisecond
// precision, literal Z suffix.
const UTCDatetimeLayout = "2006-01-02T15:04:05.000Z"

// ConvertDatetime shifts t to UTC and formats it with UTCDatetimeLayout.
// Sub-millisecond digits are truncated.
func ConvertDatetime(t time.Time) string {
	return t.UTC().Format(UTCDatetimeLayout)
}

// ConvertDatetimeString parses an ISO-8601 timestamp and returns it in the
// canonical UTC form. A space may separate date and time. Timestamps without
// a zone designator are taken to be UTC. A comma may separate the seconds
// fraction, and fraction digits past nanoseconds are dropped.
func ConvertDatetimeString(s string) (string, error) {
	value := strings.TrimSpace(s)
	if len(value) > 10 && value[10] == ' ' {
		value = value[:10] + "T" + value[11:]
	}
	value = normalizeFraction(value)

	t, err := iso8601.ParseString(value)
	if err != nil {
		appErr := apperrors.Wrap(err, apperrors.ValidationError, "Invalid timestamp")
		appErr.Detail = "cannot parse " + strconv.Quote(s) + ": " + err.Error()
		return "", appErr
	}
	return ConvertDatetime(t), nil
}

// ConvertDatetimeValue accepts the shapes timestamps arrive in from event
// payloads: a string, a time.Time or a *time.Time.
func ConvertDatetimeValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return ConvertDatetimeString(val)
	case time.Time:
		return ConvertDatetime(val), nil
	case *time.Time:
		if val == nil {
			return "", apperrors.ValidationFailed("Invalid timestamp", "nil time value")
		}
		return ConvertDatetime(*val), nil
	default:
		return "", apperrors.ValidationFailed("Invalid timestamp", fmt.Sprintf("unsupported type %T", v))
	}
}

func normalizeFraction(value string) string {
	return fractionRe.ReplaceAllStringFunc(value, func(m string) string {
		parts := fractionRe.FindStringSubmatch(m)
		digits := parts[2]
		if len(digits) > 9 {
			digits = digits[:9]
		}
		return parts[1] + "." + digits
	})
}
