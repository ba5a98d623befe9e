package models

import (
	"strings"
	"testing"
	"time"
)

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		in   string
		want RiskLevel
	}{
		{"low", RiskLow},
		{" Medium ", RiskMedium},
		{"HIGH", RiskHigh},
		{"critical", RiskCritical},
		{"", RiskHigh},
		{"severe", RiskHigh},
	}
	for _, tt := range tests {
		if got := ParseRiskLevel(tt.in); got != tt.want {
			t.Errorf("ParseRiskLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestRiskLevelRankAndStatus(t *testing.T) {
	levels := []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}
	for i, r := range levels {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
		if r.Rank() != i {
			t.Errorf("%s.Rank() = %d, want %d", r, r.Rank(), i)
		}
	}
	if RiskLevel("nope").Valid() {
		t.Error("unknown level should be invalid")
	}

	statuses := map[RiskLevel]SecurityStatus{
		RiskLow:      SecurityPassed,
		RiskMedium:   SecurityPassed,
		RiskHigh:     SecurityWarning,
		RiskCritical: SecurityFailed,
	}
	for r, want := range statuses {
		if got := r.Status(); got != want {
			t.Errorf("%s.Status() = %s, want %s", r, got, want)
		}
	}
}

func TestSecurityLevelValid(t *testing.T) {
	for _, l := range []SecurityLevel{SecurityLevelMinimal, SecurityLevelStandard, SecurityLevelStrict} {
		if !l.Valid() {
			t.Errorf("%s should be valid", l)
		}
	}
	if SecurityLevel("STRICT").Valid() {
		t.Error("levels are case sensitive once loaded")
	}
}

func TestNormalizeSet(t *testing.T) {
	got := NormalizeSet([]string{"Web", " data ", ""}, []string{"web", "API"})
	want := []string{"api", "data", "web"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeSet() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NormalizeSet()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if NormalizeSet() == nil {
		t.Error("NormalizeSet() should never return nil")
	}
	if !Contains(got, "data") || Contains(got, "Data") {
		t.Error("Contains mismatch")
	}
}

func TestNameSetKeepsCase(t *testing.T) {
	got := NameSet([]string{" Fetcher", "saver"}, []string{"Fetcher", ""})
	if strings.Join(got, ",") != "Fetcher,saver" {
		t.Errorf("NameSet() = %v", got)
	}
	if NameSet() == nil {
		t.Error("NameSet() should never return nil")
	}
}

func TestSkillMetadataClone(t *testing.T) {
	scan := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	orig := &SkillMetadata{
		Name:         "scraper",
		Capabilities: []string{"web"},
		Dependencies: []string{"http_client"},
		LastScan:     &scan,
	}
	c := orig.Clone()
	c.Capabilities[0] = "data"
	c.Dependencies = append(c.Dependencies, "csv")
	*c.LastScan = scan.Add(time.Hour)

	if orig.Capabilities[0] != "web" || len(orig.Dependencies) != 1 || !orig.LastScan.Equal(scan) {
		t.Errorf("clone shares state with original: %+v", orig)
	}
	if !orig.HasDependency("http_client") || orig.HasDependency("csv") {
		t.Error("HasDependency mismatch")
	}
	var nilMeta *SkillMetadata
	if nilMeta.Clone() != nil {
		t.Error("nil.Clone() should be nil")
	}
}

func TestComposedSkillMetadata(t *testing.T) {
	c := &ComposedSkill{
		Name:           "flow_x",
		OutputPath:     "/flows/flow_x.go",
		Components:     []string{"b", "Fetcher"},
		Dependencies:   []string{"Fetcher", "http_client"},
		Capabilities:   []string{"web"},
		SecurityStatus: SecurityPassed,
	}
	m := c.Metadata("me", "1.0.0")
	if m.Path != c.OutputPath || m.Author != "me" || m.Version != "1.0.0" {
		t.Errorf("Metadata() = %+v", m)
	}
	want := []string{"Fetcher", "b", "http_client"}
	if strings.Join(m.Dependencies, ",") != strings.Join(want, ",") {
		t.Errorf("Dependencies = %v, want %v", m.Dependencies, want)
	}
	m.Capabilities[0] = "changed"
	if c.Capabilities[0] != "web" {
		t.Error("Metadata shares slices with the composed skill")
	}
}

func TestParsedIntentIsGeneral(t *testing.T) {
	if !(&ParsedIntent{Capabilities: []string{GeneralCapability}}).IsGeneral() {
		t.Error("general intent not detected")
	}
	if (&ParsedIntent{Capabilities: []string{"web", GeneralCapability}}).IsGeneral() {
		t.Error("specific intent reported as general")
	}
}
