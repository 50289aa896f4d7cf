// Package testing forces test mode before any package under test runs, so
// nothing opens listeners or dials backing services during go test.
package testing

import (
	"os"
	stdtesting "testing"
)

func init() {
	_ = os.Setenv("SCOLARIS_TEST_MODE", "1")
	if os.Getenv("GOTENBERG_URL") == "" {
		_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
	}
}

func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
