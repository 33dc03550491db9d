package cloud

import (
	"fmt"
	"time"
)

// checkExpiry mirrors the AWS SDK presign check for backends whose signers would
// otherwise mint an already expired URL.
func checkExpiry(expiry time.Duration) error {
	if expiry <= 0 {
		return fmt.Errorf("signed url requires an expiry greater than 0, got %s", expiry)
	}
	return nil
}
