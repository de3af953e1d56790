package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseServers_Basic(t *testing.T) {
	data := []byte(`
servers:
  - name: todayinfo
    command: python3
    args: ["mcp_todayinfo.py"]
    cwd: /srv/tools
  - name: chatmemory
    command: python3
    args: ["mcp_chatmemory.py"]
`)
	specs, err := ParseServers(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
	if specs[0].Name != "todayinfo" || specs[0].Command != "python3" {
		t.Errorf("unexpected first spec: %+v", specs[0])
	}
	if specs[0].CWD != "/srv/tools" {
		t.Errorf("expected cwd /srv/tools, got %q", specs[0].CWD)
	}
	if len(specs[0].Args) != 1 || specs[0].Args[0] != "mcp_todayinfo.py" {
		t.Errorf("unexpected args: %v", specs[0].Args)
	}
}

func TestParseServers_DuplicateLastWriteWins(t *testing.T) {
	data := []byte(`
servers:
  - name: memory
    command: python3
    args: ["v1.py"]
  - name: other
    command: python3
  - name: memory
    command: python3
    args: ["v2.py"]
`)
	specs, err := ParseServers(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs after dedupe, got %d", len(specs))
	}
	// First appearance order is kept; the later entry replaces the earlier.
	if specs[0].Name != "memory" {
		t.Errorf("expected memory first, got %q", specs[0].Name)
	}
	if specs[0].Args[0] != "v2.py" {
		t.Errorf("expected last entry to win, got args %v", specs[0].Args)
	}
}

func TestParseServers_RejectsSeparatorInName(t *testing.T) {
	data := []byte("servers:\n  - name: \"bad:name\"\n    command: python3\n")
	if _, err := ParseServers(data); err == nil {
		t.Fatal("expected error for name containing separator")
	}
}

func TestParseServers_RejectsMissingFields(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"empty name", "servers:\n  - command: python3\n"},
		{"empty command", "servers:\n  - name: x\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseServers([]byte(tc.yaml)); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestParseServers_InvalidYAML(t *testing.T) {
	if _, err := ParseServers([]byte("servers: [not: valid")); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadServers_MissingFileIsEmpty(t *testing.T) {
	specs, err := LoadServers(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if specs != nil {
		t.Errorf("expected nil specs, got %v", specs)
	}
}

func TestSaveServers_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "mcp_servers.yaml")
	raw := []byte("servers:\n  - name: echo\n    command: /bin/echo\n")

	if err := SaveServers(path, raw); err != nil {
		t.Fatalf("SaveServers failed: %v", err)
	}

	specs, err := LoadServers(path)
	if err != nil {
		t.Fatalf("LoadServers failed: %v", err)
	}
	if len(specs) != 1 || specs[0].Name != "echo" {
		t.Errorf("unexpected specs: %+v", specs)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected permissions 0600, got %04o", perm)
	}
}
