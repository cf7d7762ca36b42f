// Package templates maintains the live in-memory index of template
// documents read from a watched folder.
//
// Concurrency model: every load stamps itself with a value from a
// monotonically increasing generation counter and re-checks that value
// around each suspension point (stat, directory listing, file read) and
// immediately before publishing. A superseded load is never force-stopped;
// it abandons its work at the next check, so the published snapshot always
// reflects the most recently initiated scan that ran to completion.
package templates

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// Status is the template index state.
type Status string

// Index states.
const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusEmpty   Status = "empty"
	StatusError   Status = "error"
)

// Snapshot is one published view of the index. It is immutable: a new
// snapshot replaces the old one wholesale, never field-by-field.
type Snapshot struct {
	Documents    []models.TemplateDocument
	Status       Status
	Message      string
	ErrorDetail  error
	ReadFailures int
}

// DefaultDebounce is the trailing-edge delay for watch-driven reloads.
const DefaultDebounce = 300 * time.Millisecond

// Config holds the index settings.
type Config struct {
	// Folder is the watched folder path, relative to the provider root.
	Folder string
	// Extensions mark files as template documents (default: .md).
	Extensions []string
	// Debounce is the trailing-edge reload delay (default: DefaultDebounce).
	Debounce time.Duration
}

// Index owns the template document list for one watched folder.
type Index struct {
	store    storage.Provider
	notifier storage.Notifier
	logger   *slog.Logger

	extensions []string
	debounce   time.Duration

	generation atomic.Int64

	mu       sync.Mutex
	folder   string
	snapshot *Snapshot
	onChange func(kind, path string)

	watchMu     sync.Mutex
	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

// New creates an index over store. notifier may be nil when watching is
// not used (for example in merge-only tooling).
func New(store storage.Provider, notifier storage.Notifier, cfg Config, logger *slog.Logger) *Index {
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = []string{".md"}
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Index{
		store:      store,
		notifier:   notifier,
		logger:     logger,
		extensions: exts,
		debounce:   debounce,
		folder:     normalizePath(cfg.Folder),
		snapshot:   &Snapshot{Status: StatusIdle, Documents: []models.TemplateDocument{}},
	}
}

// OnChange registers a callback invoked after watcher-driven reloads and
// notified manual reloads. kind is "reloaded"; path is the watched folder.
func (ix *Index) OnChange(cb func(kind, path string)) {
	ix.mu.Lock()
	ix.onChange = cb
	ix.mu.Unlock()
}

// Folder returns the currently watched folder path.
func (ix *Index) Folder() string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.folder
}

func (ix *Index) setFolder(p string) {
	ix.mu.Lock()
	ix.folder = normalizePath(p)
	ix.mu.Unlock()
}

// Snapshot returns the currently published snapshot. Snapshots are
// immutable once published.
func (ix *Index) Snapshot() *Snapshot {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.snapshot
}

// Templates returns a defensive copy of the current document list.
func (ix *Index) Templates() []models.TemplateDocument {
	snap := ix.Snapshot()
	return append([]models.TemplateDocument(nil), snap.Documents...)
}

// TemplateByID returns the document with the given id, if present.
func (ix *Index) TemplateByID(id string) (models.TemplateDocument, bool) {
	for _, doc := range ix.Snapshot().Documents {
		if doc.ID == id {
			return doc, true
		}
	}
	return models.TemplateDocument{}, false
}

// publish installs snap only if gen is still the latest generation.
// Reports whether the snapshot was installed.
func (ix *Index) publish(gen int64, snap *Snapshot) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.generation.Load() != gen {
		return false
	}
	ix.snapshot = snap
	return true
}

// superseded reports whether a newer load has started since gen.
func (ix *Index) superseded(gen int64) bool {
	return ix.generation.Load() != gen
}

// Load scans the watched folder and publishes a fresh snapshot. If a newer
// Load starts while this one is in flight, this call abandons its results
// at the next checkpoint and returns whatever snapshot is then current.
func (ix *Index) Load(ctx context.Context) *Snapshot {
	gen := ix.generation.Add(1)
	folder := ix.Folder()

	ix.publish(gen, &Snapshot{
		Documents: ix.Snapshot().Documents,
		Status:    StatusLoading,
		Message:   "loading templates",
	})

	if folder == "" {
		ix.publishError(gen, apperr.ErrPathNotConfigured, "template folder is not configured")
		return ix.Snapshot()
	}

	entry, err := ix.store.Stat(ctx, folder)
	if ix.superseded(gen) {
		return ix.Snapshot()
	}
	if err != nil || !entry.IsDir {
		detail := err
		if detail == nil {
			detail = fmt.Errorf("not a folder: %s", folder)
		}
		ix.publishError(gen, apperr.ErrPathInvalid,
			fmt.Sprintf("template folder %q does not resolve to a folder", folder))
		ix.logger.Warn("index: invalid folder",
			slog.String("folder", folder),
			slog.String("error", detail.Error()))
		return ix.Snapshot()
	}

	docs, readFailures, err := ix.scan(ctx, gen, folder)
	if ix.superseded(gen) {
		return ix.Snapshot()
	}
	if err != nil {
		ix.publishError(gen, apperr.ErrPathInaccessible,
			fmt.Sprintf("template folder %q cannot be read", folder))
		ix.logger.Warn("index: folder unreadable",
			slog.String("folder", folder),
			slog.String("error", err.Error()))
		return ix.Snapshot()
	}
	if docs == nil {
		// Superseded mid-scan.
		return ix.Snapshot()
	}

	sortDocuments(docs)

	snap := &Snapshot{
		Documents:    docs,
		Status:       StatusSuccess,
		Message:      fmt.Sprintf("loaded %d templates", len(docs)),
		ReadFailures: readFailures,
	}
	if len(docs) == 0 {
		snap.Status = StatusEmpty
		snap.Message = "no templates found"
	}

	if ix.publish(gen, snap) {
		ix.logger.Info("index: loaded",
			slog.String("folder", folder),
			slog.Int("templates", len(docs)),
			slog.Int("read_failures", readFailures))
	}
	return ix.Snapshot()
}

// scan walks folder with an explicit work list (iterative depth-first, no
// recursion) and reads every file whose extension marks it as a template.
// A nil document slice with nil error means the scan was superseded.
// A non-nil error means the watched folder itself could not be listed.
func (ix *Index) scan(ctx context.Context, gen int64, folder string) ([]models.TemplateDocument, int, error) {
	var files []storage.Entry
	stack := []string{folder}

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := ix.store.ListDir(ctx, dir)
		if ix.superseded(gen) {
			return nil, 0, nil
		}
		if err != nil {
			if dir == folder {
				return nil, 0, err
			}
			ix.logger.Warn("index: skip unreadable subfolder",
				slog.String("path", dir),
				slog.String("error", err.Error()))
			continue
		}
		for _, child := range children {
			if child.IsDir {
				stack = append(stack, child.Path)
				continue
			}
			if ix.isTemplate(child.Name) {
				files = append(files, child)
			}
		}
	}

	docs := make([]models.TemplateDocument, 0, len(files))
	readFailures := 0
	for _, f := range files {
		data, err := ix.store.Read(ctx, f.Path)
		if ix.superseded(gen) {
			return nil, 0, nil
		}
		if err != nil {
			// Non-fatal: count and move on, no retry.
			readFailures++
			ix.logger.Warn("index: read failed",
				slog.String("path", f.Path),
				slog.String("error", err.Error()))
			continue
		}
		docs = append(docs, models.TemplateDocument{
			ID:      f.Path,
			Name:    strings.TrimSuffix(f.Name, path.Ext(f.Name)),
			Path:    f.Path,
			Content: string(data),
		})
	}
	return docs, readFailures, nil
}

func (ix *Index) publishError(gen int64, detail error, msg string) {
	ix.publish(gen, &Snapshot{
		Documents:   []models.TemplateDocument{},
		Status:      StatusError,
		Message:     msg,
		ErrorDetail: detail,
	})
}

func (ix *Index) isTemplate(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range ix.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// sortDocuments orders documents by name, locale-aware and
// case-insensitive, with path as tiebreaker for duplicate names.
func sortDocuments(docs []models.TemplateDocument) {
	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(docs, func(i, j int) bool {
		if cmp := c.CompareString(docs[i].Name, docs[j].Name); cmp != 0 {
			return cmp < 0
		}
		return docs[i].Path < docs[j].Path
	})
}

// normalizePath converts separators to forward slashes, collapses doubled
// slashes, and trims the trailing slash.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return strings.TrimSuffix(p, "/")
}

// pathWithin reports whether p equals root or lies under it, after
// normalisation.
func pathWithin(root, p string) bool {
	root = normalizePath(root)
	p = normalizePath(p)
	if root == "" {
		return false
	}
	return p == root || strings.HasPrefix(p, root+"/")
}
