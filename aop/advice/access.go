package advice

import (
	"errors"
	"fmt"

	"github.com/danpasecinic/loom/aop"
)

var ErrAccessDenied = errors.New("access denied")

// AccessControl lets a call through only when allow approves it.
func AccessControl(allow func(inv aop.Invocation) bool) aop.Interceptor {
	return aop.Before(func(inv aop.Invocation) error {
		if allow(inv) {
			return nil
		}
		return fmt.Errorf("%w: %s.%s", ErrAccessDenied, targetType(inv), inv.Method().Name)
	})
}
