package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pubstandards/internal/config"
)

func writeTestConfig(t *testing.T, overrides string) string {
	t.Helper()
	base := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataFile = "ps_data.json"
	cfg.Export.Dir = filepath.Join(base, "public")
	cfg.LogLevel = "error"

	path := filepath.Join(base, "config.yaml")
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "ps_data.json"), []byte(overrides), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListWritesTSVWhenNotATerminal(t *testing.T) {
	path := writeTestConfig(t, `{"2019-02-14": {"name": "Valentines Standards"}}`)

	out, err := runCLI(t, "--config", path, "list", "--from", "2019-01-01", "--to", "2019-03-31")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if lines[0] != "#\tNumeral\tDate\tTitle\tVenue\tStatus" {
		t.Fatalf("header = %q", lines[0])
	}
	first := strings.Split(lines[1], "\t")
	if first[0] != "160" || first[1] != "CLX" || first[2] != "2019-01-10" || first[3] != "Pub Standards CLX" {
		t.Fatalf("first row = %q", first)
	}
	second := strings.Split(lines[2], "\t")
	if second[3] != "Valentines Standards" || second[5] != "override" {
		t.Fatalf("second row = %q", second)
	}
	if !strings.HasPrefix(lines[3], "162\tCLXII\t2019-03-14\t") {
		t.Fatalf("third row = %q", lines[3])
	}
}

func TestListLimit(t *testing.T) {
	path := writeTestConfig(t, `{}`)
	out, err := runCLI(t, "--config", path, "list", "--from", "2019-01-01", "-n", "2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if n := len(strings.Split(strings.TrimSpace(out), "\n")); n != 3 {
		t.Fatalf("got %d lines:\n%s", n, out)
	}
}

func TestShowByNumberNumeralAndSlug(t *testing.T) {
	path := writeTestConfig(t, `{"2019-02-14": {"name": "Valentines Standards"}}`)

	for _, arg := range []string{"173", "CLXXIII"} {
		out, err := runCLI(t, "--config", path, "show", arg)
		if err != nil {
			t.Fatalf("show %s: %v", arg, err)
		}
		if !strings.Contains(out, "Pub Standards CLXXIII") || !strings.Contains(out, "Thursday February 13, 2020") {
			t.Fatalf("show %s:\n%s", arg, out)
		}
	}

	out, err := runCLI(t, "--config", path, "show", "valentines-standards")
	if err != nil {
		t.Fatalf("show slug: %v", err)
	}
	if !strings.Contains(out, "Thursday February 14, 2019") {
		t.Fatalf("show slug:\n%s", out)
	}

	if _, err := runCLI(t, "--config", path, "show", "no-such-event"); err == nil {
		t.Fatal("expected error for unknown slug")
	}
}

func TestExportCommand(t *testing.T) {
	path := writeTestConfig(t, `{}`)
	dir := filepath.Join(filepath.Dir(path), "out")

	out, err := runCLI(t, "--config", path, "export", "--dir", dir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(out, "Exported ") {
		t.Fatalf("output = %q", out)
	}
	for _, name := range []string{"calendar.ics", "events.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
}

func TestBadConfigFails(t *testing.T) {
	path := writeTestConfig(t, `{}`)
	if err := os.WriteFile(path, []byte("timezone: Mars/Olympus\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "--config", path, "list"); err == nil {
		t.Fatal("expected timezone error")
	}
}

func TestPullCommand(t *testing.T) {
	path := writeTestConfig(t, `{}`)
	if _, err := runCLI(t, "--config", path, "pull"); err == nil {
		t.Fatal("pull without data_url succeeded")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"2019-02-14": {"name": "Valentines Standards"}}`))
	}))
	defer srv.Close()

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.DataURL = srv.URL + "/ps_data.json"
	if err := config.Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "--config", path, "pull")
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), ": updated") {
		t.Fatalf("output = %q", out)
	}

	out, err = runCLI(t, "--config", path, "show", "valentines-standards")
	if err != nil || !strings.Contains(out, "February 14, 2019") {
		t.Fatalf("show after pull: %v\n%s", err, out)
	}
}
