// Package registry provides the persistent, indexed catalog of reusable components.
//
// The catalog is a single JSON document. Two in-memory inverted indices
// (capability -> names, tag -> names) are rebuilt wholesale after every
// mutation so they can never drift from the catalog. Every mutation runs
// under an advisory file lock and re-reads the catalog first, so several
// processes may share one registry file without losing updates.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

var (
	// ErrNotFound is returned when a named entry does not exist.
	ErrNotFound = errors.New("skill not found")
	// ErrInvalidName is returned when registering an entry without a name.
	ErrInvalidName = errors.New("skill name cannot be empty")
)

// Query selects entries in Find.
type Query struct {
	// Capabilities must all match (substring match against index keys).
	Capabilities []string
	// Tags narrow capability matches when they match anything at all.
	Tags []string
	// MinReuseScore drops entries scoring below it.
	MinReuseScore float64
}

// Stats summarizes the catalog.
type Stats struct {
	Total           int
	AverageScore    float64
	ByCapability    map[string]int
	ByTag           map[string]int
	ByStatus        map[models.SecurityStatus]int
	TotalUsageCount int
}

// Registry is the component catalog.
type Registry struct {
	mu     sync.RWMutex
	path   string
	lock   *fileLock
	skills map[string]*models.SkillMetadata
	// capIndex and tagIndex map an index key to sorted entry names.
	capIndex map[string][]string
	tagIndex map[string][]string
	load     LoadResult
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// Open loads the registry stored at path. A missing or corrupt file yields an
// empty registry; the outcome is available from LoadResult and is logged.
func Open(path string, opts ...Option) *Registry {
	r := &Registry{
		path:   path,
		lock:   newFileLock(path + ".lock"),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "registry"))

	skills, result := loadCatalog(path, r.now())
	switch result.Kind {
	case LoadedMissing:
		r.logger.Warn("registry file missing, starting empty",
			zap.String("path", path),
			zap.String("load", string(result.Kind)))
	case LoadedRecovered:
		r.logger.Warn("registry file corrupt, starting empty",
			zap.String("path", path),
			zap.String("load", string(result.Kind)),
			zap.String("reason", result.Reason),
			zap.String("backup", result.BackupPath))
	default:
		r.logger.Debug("registry loaded", zap.String("path", path), zap.Int("count", result.Count))
	}

	r.skills = skills
	r.load = result
	r.rescoreLocked()
	r.rebuildIndicesLocked()
	return r
}

// Path returns the catalog file path.
func (r *Registry) Path() string {
	return r.path
}

// LoadResult reports how the catalog was obtained when the registry was opened.
func (r *Registry) LoadResult() LoadResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.load
}

// Register inserts or updates the entry named component.Name.
// An existing entry keeps its CreatedAt and UsageCount. Its scan status is kept
// only when the incoming one is unscanned and the content hash is unchanged;
// changed content starts over as unscanned. UpdatedAt always advances; hash,
// score and indices are recomputed and the catalog is persisted before
// Register returns. Persist failures are returned and leave the registry unchanged.
func (r *Registry) Register(component *models.SkillMetadata) (*models.SkillMetadata, error) {
	if component == nil || strings.TrimSpace(component.Name) == "" {
		return nil, ErrInvalidName
	}

	hash, err := ContentHash(component.Path)
	if err != nil {
		r.logger.Warn("content hash failed", zap.String("name", component.Name), zap.Error(err))
		hash = ""
	}

	var stored *models.SkillMetadata
	err = r.mutate(func(now time.Time) (bool, error) {
		entry := component.Clone()
		entry.Name = strings.TrimSpace(entry.Name)
		entry.Capabilities = models.NormalizeSet(entry.Capabilities)
		entry.Tags = models.NormalizeSet(entry.Tags)
		entry.Dependencies = models.NameSet(entry.Dependencies)
		if !entry.SecurityStatus.Valid() {
			entry.SecurityStatus = models.SecurityUnscanned
		}
		entry.Hash = hash
		entry.CreatedAt = now
		entry.UpdatedAt = now

		if prev, ok := r.skills[entry.Name]; ok {
			entry.CreatedAt = prev.CreatedAt
			entry.UsageCount = prev.UsageCount
			if !now.After(prev.UpdatedAt) {
				entry.UpdatedAt = prev.UpdatedAt.Add(time.Nanosecond)
			}
			if entry.SecurityStatus == models.SecurityUnscanned && entry.Hash == prev.Hash {
				entry.SecurityStatus = prev.SecurityStatus
				entry.LastScan = prev.LastScan
			}
		}
		entry.ReuseScore = ReuseScore(entry, now)

		r.skills[entry.Name] = entry
		stored = entry.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("skill registered",
		zap.String("name", stored.Name),
		zap.Strings("capabilities", stored.Capabilities),
		zap.Float64("reuse_score", stored.ReuseScore))
	return stored, nil
}

// Find returns entries matching q, sorted by reuse score (highest first).
// It never fails; no match yields an empty slice.
func (r *Registry) Find(q Query) []*models.SkillMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := models.NormalizeSet(q.Capabilities)
	tags := models.NormalizeSet(q.Tags)

	var candidates map[string]bool
	if len(caps) > 0 {
		for _, c := range caps {
			matched := matchIndex(r.capIndex, c)
			if candidates == nil {
				candidates = matched
				continue
			}
			candidates = intersect(candidates, matched)
		}
	}

	if len(tags) > 0 {
		tagged := make(map[string]bool)
		for _, t := range tags {
			for name := range matchIndex(r.tagIndex, t) {
				tagged[name] = true
			}
		}
		switch {
		case candidates == nil:
			candidates = tagged
		case len(tagged) > 0:
			// An empty tag match is no constraint.
			candidates = intersect(candidates, tagged)
		}
	}

	if candidates == nil {
		candidates = make(map[string]bool, len(r.skills))
		for name := range r.skills {
			candidates[name] = true
		}
	}

	results := make([]*models.SkillMetadata, 0, len(candidates))
	for name := range candidates {
		s, ok := r.skills[name]
		if !ok || s.ReuseScore < q.MinReuseScore {
			continue
		}
		results = append(results, s.Clone())
	}
	sortByScore(results)
	return results
}

// Get returns the entry named name, or nil.
func (r *Registry) Get(name string) *models.SkillMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.skills[name].Clone()
}

// ListAll returns every entry sorted by reuse score (highest first).
func (r *Registry) ListAll() []*models.SkillMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*models.SkillMetadata, 0, len(r.skills))
	for _, s := range r.skills {
		results = append(results, s.Clone())
	}
	sortByScore(results)
	return results
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.skills)
}

// Remove deletes the entry named name. It reports whether anything was deleted.
func (r *Registry) Remove(name string) (bool, error) {
	removed := false
	err := r.mutate(func(time.Time) (bool, error) {
		if _, ok := r.skills[name]; !ok {
			return false, nil
		}
		delete(r.skills, name)
		removed = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		r.logger.Info("skill removed", zap.String("name", name))
	}
	return removed, nil
}

// IncrementUsage adds one use to the entry named name.
func (r *Registry) IncrementUsage(name string) error {
	return r.mutate(func(now time.Time) (bool, error) {
		s, ok := r.skills[name]
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		s.UsageCount++
		s.UpdatedAt = now
		s.ReuseScore = ReuseScore(s, now)
		return true, nil
	})
}

// UpdateSecurityStatus records a scan outcome. A nil scanDate means now.
func (r *Registry) UpdateSecurityStatus(name string, status models.SecurityStatus, scanDate *time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("invalid security status %q", status)
	}
	return r.mutate(func(now time.Time) (bool, error) {
		s, ok := r.skills[name]
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		scanned := now
		if scanDate != nil {
			scanned = *scanDate
		}
		s.SecurityStatus = status
		s.LastScan = &scanned
		s.UpdatedAt = now
		s.ReuseScore = ReuseScore(s, now)
		return true, nil
	})
}

// Refresh re-reads the catalog from disk, picking up changes made by other
// processes. A missing or corrupt file leaves the in-memory catalog as is.
func (r *Registry) Refresh() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshLocked()
}

// Stats summarizes the catalog.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := Stats{
		Total:        len(r.skills),
		ByCapability: make(map[string]int, len(r.capIndex)),
		ByTag:        make(map[string]int, len(r.tagIndex)),
		ByStatus:     make(map[models.SecurityStatus]int),
	}
	var total float64
	for _, s := range r.skills {
		total += s.ReuseScore
		st.TotalUsageCount += s.UsageCount
		st.ByStatus[s.SecurityStatus]++
	}
	for k, names := range r.capIndex {
		st.ByCapability[k] = len(names)
	}
	for k, names := range r.tagIndex {
		st.ByTag[k] = len(names)
	}
	if st.Total > 0 {
		st.AverageScore = total / float64(st.Total)
	}
	return st
}

// mutate runs fn as one read-modify-write cycle: take the file lock, reload
// the catalog, apply fn, persist, rebuild indices. fn reports whether it
// changed anything. On failure the in-memory catalog is restored.
func (r *Registry) mutate(fn func(now time.Time) (bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.lock.Lock(); err != nil {
		return err
	}
	defer r.lock.Unlock()

	if err := r.refreshLocked(); err != nil {
		return err
	}

	snapshot := cloneCatalog(r.skills)
	now := r.now()

	changed, err := fn(now)
	if err != nil || !changed {
		r.skills = snapshot
		return err
	}

	if err := writeCatalog(r.path, r.skills, now); err != nil {
		r.skills = snapshot
		r.rebuildIndicesLocked()
		return fmt.Errorf("persist registry: %w", err)
	}
	r.rebuildIndicesLocked()
	return nil
}

// refreshLocked reloads from disk when the file is readable.
func (r *Registry) refreshLocked() error {
	skills, err := readCatalog(r.path)
	if err != nil {
		// Keep what we have; the next successful write repairs the file.
		r.logger.Debug("refresh skipped", zap.Error(err))
		return nil
	}
	r.skills = skills
	r.rescoreLocked()
	r.rebuildIndicesLocked()
	return nil
}

// rescoreLocked recomputes every derived score as of now.
func (r *Registry) rescoreLocked() {
	now := r.now()
	for _, s := range r.skills {
		s.ReuseScore = ReuseScore(s, now)
	}
}

// rebuildIndicesLocked rebuilds both inverted indices from scratch.
func (r *Registry) rebuildIndicesLocked() {
	capIndex := make(map[string][]string)
	tagIndex := make(map[string][]string)
	for name, s := range r.skills {
		for _, c := range s.Capabilities {
			capIndex[c] = append(capIndex[c], name)
		}
		for _, t := range s.Tags {
			tagIndex[t] = append(tagIndex[t], name)
		}
	}
	for _, names := range capIndex {
		sort.Strings(names)
	}
	for _, names := range tagIndex {
		sort.Strings(names)
	}
	r.capIndex = capIndex
	r.tagIndex = tagIndex
}

// matchIndex collects names under every index key containing term.
func matchIndex(index map[string][]string, term string) map[string]bool {
	out := make(map[string]bool)
	for key, names := range index {
		if strings.Contains(key, term) {
			for _, n := range names {
				out[n] = true
			}
		}
	}
	return out
}

func intersect(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

func sortByScore(s []*models.SkillMetadata) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].ReuseScore != s[j].ReuseScore {
			return s[i].ReuseScore > s[j].ReuseScore
		}
		return s[i].Name < s[j].Name
	})
}

func cloneCatalog(in map[string]*models.SkillMetadata) map[string]*models.SkillMetadata {
	out := make(map[string]*models.SkillMetadata, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}
