package app

import (
	"os"
	"sync"
)

const testModeEnv = "SCOLARIS_TEST_MODE"

var inTestMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})

// InTestMode reports whether the process should skip runtime side effects
// such as opening listeners or connecting to backing services. Set
// SCOLARIS_TEST_MODE=1 before the first call; the value is cached.
func InTestMode() bool {
	return inTestMode()
}
