package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ShayCichocki/skillflow/internal/flow"
)

// writeTestConfig writes a config that keeps every path under dir.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	content := fmt.Sprintf(`skills_directory: %[1]s/skills
output_directory: %[1]s/flows
registry_path: %[1]s/registry.json
state:
  path: %[1]s/state.db
log:
  level: error
`, dir)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestProcessThenHistory(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir)

	out, err := execute(t, "--config", cfg, "process", "--json", "fetch data from a url")
	if err != nil {
		t.Fatalf("process failed: %v\n%s", err, out)
	}

	var res flow.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not a JSON result: %v\n%s", err, out)
	}
	if !res.Success {
		t.Fatalf("run failed: %v", res.Errors)
	}
	if _, err := os.Stat(res.OutputPath); err != nil {
		t.Errorf("output not written: %v", err)
	}
	if !strings.HasPrefix(res.OutputPath, filepath.Join(dir, "flows")) {
		t.Errorf("OutputPath = %q, want under %s/flows", res.OutputPath, dir)
	}

	out, err = execute(t, "--config", cfg, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "fetch data from a url") {
		t.Errorf("history missing run:\n%s", out)
	}

	out, err = execute(t, "--config", cfg, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, res.Skill.Name) {
		t.Errorf("list missing %s:\n%s", res.Skill.Name, out)
	}
}

func TestInfoUnknownSkill(t *testing.T) {
	cfg := writeTestConfig(t, t.TempDir())
	if _, err := execute(t, "--config", cfg, "info", "missing"); err == nil {
		t.Fatal("expected error for unknown skill")
	}
}

func TestUpdateGitignore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".gitignore")
	if err := os.WriteFile(path, []byte("bin/\n*.lock"), 0644); err != nil {
		t.Fatal(err)
	}

	updated, err := updateGitignore(dir)
	if err != nil || !updated {
		t.Fatalf("updateGitignore() = %v, %v", updated, err)
	}
	data, _ := os.ReadFile(path)
	content := string(data)
	if strings.Count(content, "*.lock") != 1 {
		t.Errorf("duplicate entry:\n%s", content)
	}
	if !strings.Contains(content, "bin/\n*.lock\n# skillflow\n.skillflow/\n") {
		t.Errorf("unexpected content:\n%s", content)
	}

	updated, err = updateGitignore(dir)
	if err != nil || updated {
		t.Errorf("second updateGitignore() = %v, %v, want no change", updated, err)
	}
}
