package settlement

import (
	"fmt"
	"strconv"
	"strings"
)

const merchantUIDPrefix = "payment_"

// ParseMerchantUID recovers the numeric payment id from a gateway merchant
// reference of the form "payment_<id>".
func ParseMerchantUID(merchantUID string) (uint, error) {
	if !strings.HasPrefix(merchantUID, merchantUIDPrefix) {
		return 0, fmt.Errorf("%w: merchant uid %q has no payment prefix", ErrPreconditionFailed, merchantUID)
	}
	raw := strings.TrimPrefix(merchantUID, merchantUIDPrefix)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: merchant uid %q has no numeric payment id", ErrPreconditionFailed, merchantUID)
	}
	return uint(id), nil
}
