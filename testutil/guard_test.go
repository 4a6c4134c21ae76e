package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordingFatal struct {
	msg string
}

func (r *recordingFatal) Fatalf(format string, args ...any) {
	r.msg = fmt.Sprintf(format, args...)
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		pred func(string) bool
		in   string
		want bool
	}{
		{"internal", InternalImportForbidden, "consulardesk/internal/core", true},
		{"internal pkg", InternalImportForbidden, "consulardesk/pkg/domain", false},
		{"infra", InfraImportForbidden, "consulardesk/internal/infra/persistence/sqlite", true},
		{"infra root", InfraImportForbidden, "consulardesk/internal/infra", true},
		{"not infra", InfraImportForbidden, "consulardesk/internal/core", false},
		{"pgx", DriverImportForbidden, "github.com/jackc/pgx/v5/stdlib", true},
		{"sqlite", DriverImportForbidden, "modernc.org/sqlite", true},
		{"redis", DriverImportForbidden, "github.com/redis/go-redis/v9", true},
		{"prometheus", DriverImportForbidden, "github.com/prometheus/client_golang/prometheus", false},
		{"prefix only", DriverImportForbidden, "modernc.org/sqlitex", false},
	}
	for _, tc := range cases {
		if got := tc.pred(tc.in); got != tc.want {
			t.Fatalf("%s: pred(%q)=%v want %v", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.go":      "package tmp\nimport \"consulardesk/internal/infra/cache/redis\"\nvar _ = redis.New\n",
		"b.go":      "package tmp\nimport \"fmt\"\nvar _ = fmt.Sprint\n",
		"a_test.go": "package tmp\nimport \"consulardesk/internal/infra/search/elastic\"\n",
	}
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.go"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	viols, err := directImportViolations(dir, InfraImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.Contains(viols[0], "a.go") {
		t.Fatalf("expected only the non-test violation, got %v", viols)
	}
	AssertNoDirectImports(t, dir, func(string) bool { return false }, "none")
}

func TestDirectImportViolationsMissingDir(t *testing.T) {
	if _, err := directImportViolations(filepath.Join(t.TempDir(), "missing"), InternalImportForbidden); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestTransitiveViolationsUsesGoList(t *testing.T) {
	orig := goListDeps
	t.Cleanup(func() { goListDeps = orig })
	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\nconsulardesk/pkg/domain\nmodernc.org/sqlite/lib\n\n"), nil
	}
	viols, _, err := transitiveDependencyViolations("./...", DriverImportForbidden)
	if err != nil {
		t.Fatalf("violations: %v", err)
	}
	if len(viols) != 1 || viols[0] != "modernc.org/sqlite/lib" {
		t.Fatalf("unexpected violations %v", viols)
	}

	rec := &recordingFatal{}
	failIf(rec, "forbidden transitive dependency", "domain stays portable", viols)
	if !strings.Contains(rec.msg, "domain stays portable") || !strings.Contains(rec.msg, "modernc.org/sqlite/lib") {
		t.Fatalf("unexpected failure message %q", rec.msg)
	}
}
