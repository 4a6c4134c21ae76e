package httpapi

import (
	"testing"

	"consulardesk/testutil"
)

func TestHandlersStayOffInfra(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InfraImportForbidden, "handlers reach storage through core.Service")
	testutil.AssertNoDirectImports(t, ".", testutil.DriverImportForbidden, "handlers never talk to drivers")
}
