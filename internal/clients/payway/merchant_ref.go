package payway

import (
	"strconv"
	"time"
)

const (
	MerchantRefMaxLen = 20
	merchantRefPrefix = "ORD-"
	orderSuffixLen    = 8
	timeFragmentLen   = 6
)

// GenerateMerchantRefNo builds "ORD-<last 8 of order id>-<last 6 of base36 millis>".
// Two calls for one order return different values. Generate once per order
// and persist the result.
func GenerateMerchantRefNo(orderID string, now time.Time) string {
	ref := merchantRefPrefix + lastN(orderID, orderSuffixLen) + "-" +
		lastN(strconv.FormatInt(now.UnixMilli(), 36), timeFragmentLen)

	if len(ref) > MerchantRefMaxLen {
		ref = ref[:MerchantRefMaxLen]
	}

	return ref
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[len(s)-n:]
}
