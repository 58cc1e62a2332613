package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joeblew999/geo-map/internal/geostyle"
	"github.com/joeblew999/geo-map/internal/metrics"
)

// Source errors.
var (
	ErrInvalidSourceName = eris.New("invalid source file name")
	ErrSourceNotFound    = eris.New("source file not found")
)

// maxConcurrentAnalyses bounds AnalyzeAll.
const maxConcurrentAnalyses = 4

// sourceTypes maps supported extensions to their display type.
var sourceTypes = map[string]string{
	".geojson": "GeoJSON",
	".json":    "GeoJSON",
}

// SourceService reads GeoJSON source files and styles them.
type SourceService struct {
	sourcesDir string
	log        *zap.Logger
}

// NewSourceService creates a new source service.
func NewSourceService(dataDir string, log *zap.Logger) *SourceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SourceService{
		sourcesDir: filepath.Join(dataDir, "sources"),
		log:        log,
	}
}

// List returns all available source files, sorted by name.
func (s *SourceService) List() ([]SourceFile, error) {
	entries, err := os.ReadDir(s.sourcesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SourceFile{}, nil
		}
		return nil, eris.Wrap(err, "list sources")
	}

	files := []SourceFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		fileType, ok := sourceTypes[ext]
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, SourceFile{
			Name:     entry.Name(),
			Size:     formatSize(info.Size()),
			FileType: fileType,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Read returns the raw contents of a source file.
func (s *SourceService) Read(name string) ([]byte, error) {
	if err := validateSourceName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.sourcesDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrSourceNotFound, "source %q", name)
		}
		return nil, eris.Wrapf(err, "read source %q", name)
	}
	return data, nil
}

// Analyze reads and analyzes a source file.
func (s *SourceService) Analyze(name string) (geostyle.Analysis, error) {
	data, err := s.Read(name)
	if err != nil {
		return geostyle.Analysis{}, err
	}
	a, err := geostyle.AnalyzeBytes(data)
	if err != nil {
		return geostyle.Analysis{}, eris.Wrapf(err, "analyze source %q", name)
	}
	metrics.Analyses.Inc()
	return a, nil
}

// Style analyzes a source file and synthesizes its default layers.
func (s *SourceService) Style(name string) (SourceStyle, error) {
	a, err := s.Analyze(name)
	if err != nil {
		return SourceStyle{}, err
	}
	layers := geostyle.Synthesize(a)
	for _, l := range layers {
		metrics.LayersSynthesized.WithLabelValues(string(l.Type)).Inc()
	}
	return SourceStyle{Name: name, Analysis: a, Layers: layers}, nil
}

// AnalyzeAll analyzes every listed source concurrently. A file that fails
// to parse is logged and left out; I/O errors abort the run.
func (s *SourceService) AnalyzeAll(ctx context.Context) (map[string]geostyle.Analysis, error) {
	files, err := s.List()
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	result := make(map[string]geostyle.Analysis, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAnalyses)
	for _, f := range files {
		name := f.Name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := s.Analyze(name)
			if eris.Is(err, geostyle.ErrInvalidGeoJSON) {
				s.log.Warn("skipping unparseable source", zap.String("source", name), zap.Error(err))
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			result[name] = a
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// validateSourceName rejects path traversal and unsupported extensions.
func validateSourceName(name string) error {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return eris.Wrapf(ErrInvalidSourceName, "%q", name)
	}
	if _, ok := sourceTypes[strings.ToLower(filepath.Ext(name))]; !ok {
		return eris.Wrapf(ErrInvalidSourceName, "unsupported file type %q", filepath.Ext(name))
	}
	return nil
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
