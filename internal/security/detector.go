package security

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

const (
	// maxScanFileSize skips files larger than this; components are source, not data.
	maxScanFileSize = 2 << 20
	// maxFindings caps the detail list of one scan.
	maxFindings = 50
)

// Detector is the local heuristic gate. It combines four strategies:
// content rules, security-sensitive imports, sensitive path patterns and
// keywords, and sensitive file types. The component's risk is the highest
// risk of any finding, or LOW when nothing matched.
type Detector struct {
	mu    sync.RWMutex
	rules []Rule
	paths SensitivePaths
}

// NewDetector creates a detector with the built-in rules.
func NewDetector() *Detector {
	d := &Detector{
		paths: SensitivePaths{
			Patterns:  append([]string(nil), DefaultSensitivePaths.Patterns...),
			Keywords:  append([]string(nil), DefaultSensitivePaths.Keywords...),
			FileTypes: append([]string(nil), DefaultSensitivePaths.FileTypes...),
		},
	}
	for _, group := range [][]Rule{DefaultRules, ImportRules} {
		for _, r := range group {
			if err := r.compile(); err != nil {
				// Built-in patterns are covered by tests.
				panic(err)
			}
			d.rules = append(d.rules, r)
		}
	}
	return d
}

// Apply merges a rules file into the detector.
func (d *Detector) Apply(rf *RulesFile) {
	if rf == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(rf.Disable) > 0 {
		kept := d.rules[:0]
		for _, r := range d.rules {
			if !contains(rf.Disable, r.Name) {
				kept = append(kept, r)
			}
		}
		d.rules = kept
	}
	d.rules = append(d.rules, rf.Rules...)
	d.paths.Patterns = append(d.paths.Patterns, rf.SensitivePaths.Patterns...)
	d.paths.Keywords = append(d.paths.Keywords, rf.SensitivePaths.Keywords...)
	d.paths.FileTypes = append(d.paths.FileTypes, rf.SensitivePaths.FileTypes...)
}

// AddRule compiles and adds a content rule.
func (d *Detector) AddRule(r Rule) error {
	if err := r.compile(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rules = append(d.rules, r)
	return nil
}

// RuleNames lists the active rule names.
func (d *Detector) RuleNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.rules))
	for _, r := range d.rules {
		if !contains(names, r.Name) {
			names = append(names, r.Name)
		}
	}
	return names
}

// Scan classifies the file or directory at path. Detail is a []Finding.
func (d *Detector) Scan(ctx context.Context, path string) (ScanResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ScanResult{}, fmt.Errorf("scan %s: %w", path, err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	root := filepath.Dir(path)
	var findings []Finding
	scanOne := func(file string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, file)
		rel = filepath.ToSlash(rel)
		findings = append(findings, d.checkPath(rel)...)
		found, err := d.checkContent(file, rel)
		if err != nil {
			return err
		}
		findings = append(findings, found...)
		return nil
	}

	if !info.IsDir() {
		err = scanOne(path)
	} else {
		err = filepath.WalkDir(path, func(p string, e fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if e.IsDir() {
				if p != path && strings.HasPrefix(e.Name(), ".") && e.Name() != ".ssh" {
					return filepath.SkipDir
				}
				return nil
			}
			if !e.Type().IsRegular() {
				return nil
			}
			return scanOne(p)
		})
	}
	if err != nil {
		return ScanResult{}, fmt.Errorf("scan %s: %w", path, err)
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Risk.Rank() != findings[j].Risk.Rank() {
			return findings[i].Risk.Rank() > findings[j].Risk.Rank()
		}
		if findings[i].File != findings[j].File {
			return findings[i].File < findings[j].File
		}
		return findings[i].Line < findings[j].Line
	})
	if len(findings) > maxFindings {
		findings = findings[:maxFindings]
	}

	risk := models.RiskLow
	if len(findings) > 0 {
		risk = findings[0].Risk
	}
	if findings == nil {
		findings = []Finding{}
	}
	return ScanResult{Risk: risk, Detail: findings}, nil
}

// checkPath applies the path based strategies to a slash-separated path.
func (d *Detector) checkPath(rel string) []Finding {
	lower := strings.ToLower(rel)
	for _, p := range d.paths.Patterns {
		if matchGlob(rel, p) {
			return []Finding{{Risk: models.RiskMedium, Rule: "sensitive-path", File: rel, Reason: "Path matches sensitive pattern " + p}}
		}
	}
	for _, k := range d.paths.Keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return []Finding{{Risk: models.RiskMedium, Rule: "sensitive-keyword", File: rel, Reason: "Path contains sensitive keyword " + k}}
		}
	}
	ext := strings.ToLower(filepath.Ext(rel))
	for _, t := range d.paths.FileTypes {
		if ext == strings.ToLower(t) {
			return []Finding{{Risk: models.RiskMedium, Rule: "sensitive-file-type", File: rel, Reason: "Sensitive file type " + t}}
		}
	}
	return nil
}

// checkContent runs the content rules over every line of a text file.
// Each rule reports at most once per file.
func (d *Detector) checkContent(file, rel string) ([]Finding, error) {
	info, err := os.Stat(file)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxScanFileSize {
		return nil, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	if isBinary(data) {
		return nil, nil
	}

	lang := languageOf(file)
	var active []*Rule
	for i := range d.rules {
		if d.rules[i].appliesTo(lang) {
			active = append(active, &d.rules[i])
		}
	}

	var findings []Finding
	reported := make(map[string]bool)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), maxScanFileSize)
	for line := 1; sc.Scan(); line++ {
		text := sc.Text()
		for _, r := range active {
			if reported[r.Name+r.Pattern] || !r.re.MatchString(text) {
				continue
			}
			reported[r.Name+r.Pattern] = true
			findings = append(findings, Finding{Risk: r.Risk, Rule: r.Name, File: rel, Line: line, Reason: r.Reason})
		}
	}
	return findings, sc.Err()
}

// isBinary treats content with a NUL byte in the first 8KB as binary.
func isBinary(data []byte) bool {
	n := min(len(data), 8192)
	return bytes.IndexByte(data[:n], 0) >= 0
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
