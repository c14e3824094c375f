package pool

import (
	"fmt"
	"runtime"
	"strings"
)

// captureCallStack records the caller chain starting two frames above
// itself (pool-internal frames such as getStream included), in
// the same abbreviated "file:line" shape internal/errors uses for its
// own stack traces. It is only invoked when Config.GenerateCallStacks is
// set, since walking runtime.Caller on every allocation is measurable
// overhead under churn.
func captureCallStack() []string {
	var stack []string
	for i := 2; i < 16; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if idx := strings.LastIndex(file, "/"); idx != -1 {
			file = file[idx+1:]
		}
		stack = append(stack, fmt.Sprintf("%s:%d", file, line))
	}
	return stack
}
