package resources

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mbedbridge/internal/interfaces"
	"github.com/ternarybob/mbedbridge/internal/models"
)

// IgnoreFileName holds per-directory ignore patterns
const IgnoreFileName = ".mbedignore"

var vcsDirs = map[string]bool{".git": true, ".hg": true, ".svn": true}

// labelPrefixes maps a directory prefix to the toolchain label kind that
// must be active for the scanner to descend into it
var labelPrefixes = []struct {
	prefix string
	kind   string
}{
	{"TARGET_", "TARGET"},
	{"TOOLCHAIN_", "TOOLCHAIN"},
	{"FEATURE_", "FEATURE"},
}

// Scanner is the reference filesystem interfaces.ResourceScanner
type Scanner struct {
	logger     arbor.ILogger
	ignoreDirs map[string]bool
}

var _ interfaces.ResourceScanner = (*Scanner)(nil)

// NewScanner creates a scanner that skips the named directories
func NewScanner(logger arbor.ILogger, ignoreDirs []string) *Scanner {
	ignore := make(map[string]bool, len(ignoreDirs))
	for _, d := range ignoreDirs {
		ignore[filepath.Base(filepath.Clean(d))] = true
	}
	return &Scanner{logger: logger, ignoreDirs: ignore}
}

type ignoreRule struct {
	base     string
	patterns []string
}

// scan accumulates one Scan call
type scan struct {
	res     *models.Resources
	labels  map[string][]string
	rules   []ignoreRule
	incSeen map[string]bool
	libSeen map[string]bool
	notify  func(string)
}

// Scan walks every source root and dependency path and categorizes files
func (s *Scanner) Scan(ctx context.Context, req interfaces.ScanRequest) (*models.Resources, error) {
	if req.Toolchain == nil {
		return nil, fmt.Errorf("scan resources: no toolchain")
	}

	st := &scan{
		res:     &models.Resources{},
		labels:  req.Toolchain.Labels(),
		incSeen: map[string]bool{},
		libSeen: map[string]bool{},
		notify:  func(msg string) { s.logger.Warn().Msg(msg) },
	}

	roots := append(slices.Clone(req.SrcPaths), req.DependenciesPaths...)
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.walk(ctx, st, root); err != nil {
			return nil, err
		}
	}
	for _, dir := range req.IncDirs {
		st.addIncDir(dir)
	}

	s.logger.Debug().
		Int("asm", len(st.res.ASMSources)).
		Int("c", len(st.res.CSources)).
		Int("cpp", len(st.res.CPPSources)).
		Int("inc_dirs", len(st.res.IncDirs)).
		Int("libraries", len(st.res.Libraries)).
		Msg("Scanned resources")

	return st.res, nil
}

func (s *Scanner) walk(ctx context.Context, st *scan, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("source root %s: %w", root, err)
	}
	if !info.IsDir() {
		st.addFile(root, filepath.Base(root))
		return nil
	}

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if p != root && s.skipDir(st, d.Name()) {
				return filepath.SkipDir
			}
			if st.ignored(p) {
				return filepath.SkipDir
			}
			return st.loadIgnoreFile(p)
		}

		if d.Name() == IgnoreFileName || st.ignored(p) {
			return nil
		}
		st.addFile(p, d.Name())
		return nil
	})
}

func (s *Scanner) skipDir(st *scan, name string) bool {
	if vcsDirs[name] || s.ignoreDirs[name] {
		return true
	}
	for _, lp := range labelPrefixes {
		if label, ok := strings.CutPrefix(name, lp.prefix); ok {
			return !slices.Contains(st.labels[lp.kind], label)
		}
	}
	return false
}

func (st *scan) loadIgnoreFile(dir string) error {
	f, err := os.Open(filepath.Join(dir, IgnoreFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	rule := ignoreRule{base: dir}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule.patterns = append(rule.patterns, strings.TrimSuffix(strings.TrimSuffix(line, "/*"), "/"))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	st.rules = append(st.rules, rule)
	return nil
}

// ignored reports whether p, or any directory between a rule's base and p,
// matches one of the rule's patterns
func (st *scan) ignored(p string) bool {
	for _, rule := range st.rules {
		rel, err := filepath.Rel(rule.base, p)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range rule.patterns {
			for candidate := rel; candidate != "." && candidate != ""; candidate = path.Dir(candidate) {
				if ok, _ := path.Match(pattern, candidate); ok {
					return true
				}
			}
		}
	}
	return false
}

func (st *scan) addFile(p, name string) {
	ref := models.FileRef{Name: name, Location: p}
	switch filepath.Ext(name) {
	case ".s", ".S":
		st.res.ASMSources = append(st.res.ASMSources, ref)
	case ".c":
		st.res.CSources = append(st.res.CSources, ref)
	case ".cpp", ".cc", ".cxx":
		st.res.CPPSources = append(st.res.CPPSources, ref)
	case ".h", ".hpp", ".hh":
		st.addIncDir(filepath.Dir(p))
	case ".ld":
		if st.res.LinkerScript != nil {
			st.notify(fmt.Sprintf("Multiple linker scripts found, keeping %s over %s", st.res.LinkerScript.Location, p))
			return
		}
		st.res.LinkerScript = &ref
	case ".a":
		st.res.Libraries = append(st.res.Libraries, ref)
		dir := filepath.Dir(p)
		if !st.libSeen[dir] {
			st.libSeen[dir] = true
			st.res.LibDirs = append(st.res.LibDirs, models.FileRef{Name: filepath.Base(dir), Location: dir})
		}
	case ".o":
		st.res.Objects = append(st.res.Objects, ref)
	case ".hex":
		st.res.HexFiles = append(st.res.HexFiles, ref)
	case ".bin":
		st.res.BinFiles = append(st.res.BinFiles, ref)
	}
}

func (st *scan) addIncDir(dir string) {
	if st.incSeen[dir] {
		return
	}
	st.incSeen[dir] = true
	st.res.IncDirs = append(st.res.IncDirs, models.FileRef{Name: filepath.Base(dir), Location: dir})
}
