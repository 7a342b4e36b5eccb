package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestValidateFileLayerRules(t *testing.T) {
	dir := t.TempDir()
	service := modulePath + "/contexts/identity-access/onboarding-service"

	cases := []struct {
		name  string
		layer string
		src   string
		want  int
	}{
		{"domain stays pure", "domain", `package x; import _ "` + service + `/domain/errors"`, 0},
		{"domain may not use ports", "domain", `package x; import _ "` + service + `/ports"`, 1},
		{"ports may use shared kernel", "ports", `package x; import _ "` + sharedKernel + `/outbox"`, 0},
		{"application may not reach platform", "application", `package x; import _ "` + modulePath + `/internal/platform/db"`, 2},
		{"application may not import adapters", "application", `package x; import _ "` + service + `/adapters/memory"`, 2},
		{"transport has no third-party deps", "transport", `package x; import _ "github.com/google/uuid"`, 1},
		{"cross-module import", "adapters", `package x; import _ "` + modulePath + `/contexts/content-access/entitlement-service/ports"`, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, "file.go")
			writeFile(t, path, tc.src)
			got := validateFile(path, "file.go", tc.layer, service)
			if len(got) != tc.want {
				t.Fatalf("expected %d violations, got %+v", tc.want, got)
			}
		})
	}
}

func TestBypassFilesMustBeTagged(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "http", "handler_testbypass.go"), "//go:build testbypass\n\npackage http\n")
	writeFile(t, filepath.Join(dir, "http", "routes_testbypass.go"), "package http\n")
	writeFile(t, filepath.Join(dir, "http", "negated_testbypass.go"), "//go:build !testbypass\n\npackage http\n")
	writeFile(t, filepath.Join(dir, "http", "server_testbypass_off.go"), "//go:build !testbypass\n\npackage http\n")
	writeFile(t, filepath.Join(dir, "_reference", "leak_testbypass.go"), "package reference\n")

	got := collectBypassViolations(dir)
	if len(got) != 2 {
		t.Fatalf("expected 2 violations, got %+v", got)
	}
	for _, v := range got {
		if base := filepath.Base(v.File); base != "routes_testbypass.go" && base != "negated_testbypass.go" {
			t.Fatalf("unexpected violation %+v", v)
		}
	}
}
