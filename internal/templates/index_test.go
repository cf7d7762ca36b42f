package templates

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/storage"
)

// fakeProvider is an in-memory storage.Provider. files maps relative
// slash paths to content; directories are implied by file paths plus the
// dirs set. readDelay, when set, is keyed by path and blocks that file's
// read until released.
type fakeProvider struct {
	mu        sync.Mutex
	files     map[string]string
	dirs      map[string]struct{}
	failReads map[string]struct{}
	failList  map[string]struct{}
	readGate  map[string]chan struct{}
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		files:     make(map[string]string),
		dirs:      make(map[string]struct{}),
		failReads: make(map[string]struct{}),
		failList:  make(map[string]struct{}),
		readGate:  make(map[string]chan struct{}),
	}
}

func (p *fakeProvider) addFile(path, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[path] = content
	dir := path
	for {
		i := strings.LastIndex(dir, "/")
		if i < 0 {
			break
		}
		dir = dir[:i]
		p.dirs[dir] = struct{}{}
	}
}

func (p *fakeProvider) addDir(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirs[path] = struct{}{}
}

func (p *fakeProvider) gateRead(path string) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan struct{})
	p.readGate[path] = ch
	return ch
}

func (p *fakeProvider) Stat(_ context.Context, path string) (storage.Entry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.dirs[path]; ok {
		return storage.Entry{Path: path, Name: baseName(path), IsDir: true}, nil
	}
	if _, ok := p.files[path]; ok {
		return storage.Entry{Path: path, Name: baseName(path)}, nil
	}
	return storage.Entry{}, errors.New("no such path")
}

func (p *fakeProvider) ListDir(_ context.Context, path string) ([]storage.Entry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, fail := p.failList[path]; fail {
		return nil, errors.New("permission denied")
	}
	if _, ok := p.dirs[path]; !ok {
		return nil, errors.New("not a directory")
	}
	seen := make(map[string]storage.Entry)
	prefix := path + "/"
	for f := range p.files {
		if !strings.HasPrefix(f, prefix) {
			continue
		}
		rest := strings.TrimPrefix(f, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			child := path + "/" + rest[:i]
			seen[child] = storage.Entry{Path: child, Name: rest[:i], IsDir: true}
		} else {
			seen[f] = storage.Entry{Path: f, Name: rest}
		}
	}
	for d := range p.dirs {
		if !strings.HasPrefix(d, prefix) {
			continue
		}
		rest := strings.TrimPrefix(d, prefix)
		if !strings.Contains(rest, "/") {
			seen[d] = storage.Entry{Path: d, Name: rest, IsDir: true}
		}
	}
	out := make([]storage.Entry, 0, len(seen))
	for _, e := range seen {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (p *fakeProvider) Read(_ context.Context, path string) ([]byte, error) {
	p.mu.Lock()
	gate := p.readGate[path]
	_, fail := p.failReads[path]
	content, ok := p.files[path]
	p.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail {
		return nil, errors.New("read error")
	}
	if !ok {
		return nil, errors.New("no such file")
	}
	return []byte(content), nil
}

func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testIndex(p storage.Provider, folder string) *Index {
	return New(p, nil, Config{Folder: folder}, testLogger())
}

func TestLoad_SuccessSorted(t *testing.T) {
	p := newFakeProvider()
	p.addDir("templates")
	p.addFile("templates/zebra.md", "z")
	p.addFile("templates/Apple.md", "a")
	p.addFile("templates/beta.md", "b")
	p.addFile("templates/notes.txt", "skip me")

	ix := testIndex(p, "templates")
	snap := ix.Load(context.Background())

	if snap.Status != StatusSuccess {
		t.Fatalf("status = %s, want success", snap.Status)
	}
	names := make([]string, len(snap.Documents))
	for i, d := range snap.Documents {
		names[i] = d.Name
	}
	// Case-insensitive ordering: Apple before beta before zebra.
	if diff := cmp.Diff([]string{"Apple", "beta", "zebra"}, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	for _, d := range snap.Documents {
		if d.ID != d.Path {
			t.Errorf("id %q != path %q", d.ID, d.Path)
		}
	}
}

func TestLoad_NestedFolders(t *testing.T) {
	p := newFakeProvider()
	p.addDir("templates")
	p.addFile("templates/a.md", "a")
	p.addFile("templates/deep/nested/b.md", "b")

	ix := testIndex(p, "templates")
	snap := ix.Load(context.Background())

	if len(snap.Documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(snap.Documents))
	}
}

func TestLoad_Empty(t *testing.T) {
	p := newFakeProvider()
	p.addDir("templates")

	ix := testIndex(p, "templates")
	snap := ix.Load(context.Background())

	if snap.Status != StatusEmpty {
		t.Errorf("status = %s, want empty", snap.Status)
	}
}

func TestLoad_PathNotConfigured(t *testing.T) {
	ix := testIndex(newFakeProvider(), "")
	snap := ix.Load(context.Background())

	if snap.Status != StatusError {
		t.Fatalf("status = %s, want error", snap.Status)
	}
	if !errors.Is(snap.ErrorDetail, apperr.ErrPathNotConfigured) {
		t.Errorf("detail = %v", snap.ErrorDetail)
	}
}

func TestLoad_PathInvalid(t *testing.T) {
	p := newFakeProvider()
	p.addFile("templates", "a file, not a folder")

	ix := testIndex(p, "templates")
	snap := ix.Load(context.Background())

	if snap.Status != StatusError {
		t.Fatalf("status = %s, want error", snap.Status)
	}
	if !errors.Is(snap.ErrorDetail, apperr.ErrPathInvalid) {
		t.Errorf("detail = %v", snap.ErrorDetail)
	}
}

func TestLoad_PathInaccessible(t *testing.T) {
	p := newFakeProvider()
	p.addDir("templates")
	p.failList["templates"] = struct{}{}

	ix := testIndex(p, "templates")
	snap := ix.Load(context.Background())

	if snap.Status != StatusError {
		t.Fatalf("status = %s, want error", snap.Status)
	}
	if !errors.Is(snap.ErrorDetail, apperr.ErrPathInaccessible) {
		t.Errorf("detail = %v", snap.ErrorDetail)
	}
}

func TestLoad_ReadFailureNonFatal(t *testing.T) {
	p := newFakeProvider()
	p.addDir("templates")
	p.addFile("templates/good.md", "ok")
	p.addFile("templates/bad.md", "broken")
	p.failReads["templates/bad.md"] = struct{}{}

	ix := testIndex(p, "templates")
	snap := ix.Load(context.Background())

	if snap.Status != StatusSuccess {
		t.Fatalf("status = %s, want success", snap.Status)
	}
	if len(snap.Documents) != 1 || snap.Documents[0].Name != "good" {
		t.Errorf("documents = %v", snap.Documents)
	}
	if snap.ReadFailures != 1 {
		t.Errorf("read failures = %d, want 1", snap.ReadFailures)
	}
}

// TestLoad_SupersededNeverPublishes is the core cancellation property:
// when a second load starts while the first is blocked in a file read,
// only the second load's snapshot may ever be published.
func TestLoad_SupersededNeverPublishes(t *testing.T) {
	p := newFakeProvider()
	p.addDir("templates")
	p.addFile("templates/slow.md", "old content")
	gate := p.gateRead("templates/slow.md")

	ix := testIndex(p, "templates")

	firstDone := make(chan *Snapshot, 1)
	go func() {
		firstDone <- ix.Load(context.Background())
	}()

	// Wait until the first load is parked inside the gated read.
	deadline := time.Now().Add(2 * time.Second)
	for ix.generation.Load() != 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)

	// Second, fast load with changed content.
	p.mu.Lock()
	p.files["templates/slow.md"] = "new content"
	delete(p.readGate, "templates/slow.md")
	p.mu.Unlock()

	second := ix.Load(context.Background())
	if second.Status != StatusSuccess {
		t.Fatalf("second load status = %s", second.Status)
	}
	if second.Documents[0].Content != "new content" {
		t.Fatalf("second load content = %q", second.Documents[0].Content)
	}

	// Release the first load; it must abandon its stale result.
	close(gate)
	first := <-firstDone

	if got := ix.Snapshot().Documents[0].Content; got != "new content" {
		t.Errorf("published content = %q, stale load overwrote newer snapshot", got)
	}
	// The superseded call returns the currently published snapshot.
	if first.Documents[0].Content != "new content" {
		t.Errorf("superseded load returned %q", first.Documents[0].Content)
	}
}

func TestTemplatesDefensiveCopy(t *testing.T) {
	p := newFakeProvider()
	p.addDir("templates")
	p.addFile("templates/a.md", "a")

	ix := testIndex(p, "templates")
	ix.Load(context.Background())

	docs := ix.Templates()
	docs[0].Name = "mutated"

	if ix.Snapshot().Documents[0].Name == "mutated" {
		t.Error("Templates() must return a copy")
	}
}

func TestTemplateByID(t *testing.T) {
	p := newFakeProvider()
	p.addDir("templates")
	p.addFile("templates/a.md", "content-a")

	ix := testIndex(p, "templates")
	ix.Load(context.Background())

	doc, ok := ix.TemplateByID("templates/a.md")
	if !ok || doc.Content != "content-a" {
		t.Errorf("doc = %+v, ok = %v", doc, ok)
	}
	if _, ok := ix.TemplateByID("templates/missing.md"); ok {
		t.Error("missing id should not resolve")
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"a\\b\\c":   "a/b/c",
		"a//b///c/": "a/b/c",
		"a/b/":      "a/b",
		"":          "",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPathWithin(t *testing.T) {
	cases := []struct {
		root, p string
		want    bool
	}{
		{"templates", "templates", true},
		{"templates", "templates/a.md", true},
		{"templates", "templates2/a.md", false},
		{"templates", "other/a.md", false},
		{"templates", "templates\\sub\\a.md", true},
		{"", "anything", false},
	}
	for _, tc := range cases {
		if got := pathWithin(tc.root, tc.p); got != tc.want {
			t.Errorf("pathWithin(%q, %q) = %v, want %v", tc.root, tc.p, got, tc.want)
		}
	}
}
