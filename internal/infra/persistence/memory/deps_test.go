package memory

import (
	"strings"
	"testing"

	"consulardesk/testutil"
)

// The memory engine underlies every durable store, so it may see only the
// record types and the standard library.
func TestMemoryEngineDependsOnDomainOnly(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", func(path string) bool {
		return strings.HasPrefix(path, "consulardesk/") && path != "consulardesk/pkg/domain"
	}, "memory engine is a leaf over pkg/domain")
	testutil.AssertNoDirectImports(t, ".", testutil.DriverImportForbidden, "memory engine has no driver")
}
