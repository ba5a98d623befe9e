package registry

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

// IntentParser infers capabilities for components that ship without a manifest.
type IntentParser interface {
	Parse(request string) *models.ParsedIntent
}

// ScanReport summarizes a ScanDirectory call.
type ScanReport struct {
	Registered []string
	Skipped    map[string]string
}

// ScanDirectory registers every component found directly under dir.
// A component is either a sub-directory or a regular file. Metadata comes from
// skill.yaml (or <file>.skill.yaml) when present, otherwise it is inferred
// from the component name and its leading description via parser.
// Individual failures are recorded in the report; only a persist error aborts.
func (r *Registry) ScanDirectory(dir string, parser IntentParser) (*ScanReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read skills directory: %w", err)
	}

	report := &ScanReport{Skipped: make(map[string]string)}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if skipEntry(e.Name()) {
			continue
		}

		meta, err := Describe(path, parser)
		if err != nil {
			report.Skipped[e.Name()] = err.Error()
			r.logger.Debug("skipping component", zap.String("path", path), zap.Error(err))
			continue
		}

		if _, err := r.Register(meta); err != nil {
			return report, err
		}
		report.Registered = append(report.Registered, meta.Name)
	}
	return report, nil
}

// Describe builds registry metadata for the component at path.
func Describe(path string, parser IntentParser) (*models.SkillMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if m, err := findManifest(path, info.IsDir()); err == nil {
		if m.Name == "" {
			m.Name = componentName(path)
		}
		return m.Metadata(path), nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if !info.IsDir() && !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file")
	}

	name := componentName(path)
	description := leadingDescription(path, info.IsDir())
	meta := &models.SkillMetadata{
		Name:           name,
		Description:    description,
		Path:           path,
		SecurityStatus: models.SecurityUnscanned,
	}
	if parser != nil {
		text := strings.NewReplacer("_", " ", "-", " ").Replace(name)
		if description != "" {
			text += ". " + description
		}
		parsed := parser.Parse(text)
		if !parsed.IsGeneral() {
			meta.Capabilities = parsed.Capabilities
		}
		if len(parsed.Tags) > 0 && parsed.Tags[0] != models.GeneralCapability {
			meta.Tags = parsed.Tags
		}
	}
	return meta, nil
}

func findManifest(path string, isDir bool) (*Manifest, error) {
	if isDir {
		return ReadManifest(filepath.Join(path, ManifestName))
	}
	return ReadManifest(strings.TrimSuffix(path, filepath.Ext(path)) + ManifestSuffix)
}

// componentName is the base name without extension.
func componentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// leadingDescription takes the first line of README.md for directories, or
// the first comment line of a file.
func leadingDescription(path string, isDir bool) string {
	if isDir {
		return firstLine(filepath.Join(path, "README.md"), func(s string) string {
			return strings.TrimSpace(strings.TrimLeft(s, "# "))
		})
	}
	return firstLine(path, func(s string) string {
		for _, prefix := range []string{"//", "#", "--"} {
			if strings.HasPrefix(s, prefix) {
				return strings.TrimSpace(strings.TrimPrefix(s, prefix))
			}
		}
		return ""
	})
}

func firstLine(path string, extract func(string) string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for i := 0; sc.Scan() && i < 20; i++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#!") {
			continue
		}
		return extract(line)
	}
	return ""
}

// skipEntry ignores hidden files, manifests and editor leftovers.
func skipEntry(name string) bool {
	return strings.HasPrefix(name, ".") ||
		name == ManifestName ||
		strings.HasSuffix(name, ManifestSuffix) ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp")
}
