package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tangzhangming/lye/internal/ast"
	"github.com/tangzhangming/lye/internal/bytecode"
)

func testUnit(t *testing.T, name string) *bytecode.Unit {
	t.Helper()
	pool := bytecode.NewPool()
	code := []bytecode.Instruction{
		bytecode.With(bytecode.OpLdc2W, int(pool.Double(42))),
		bytecode.Op(bytecode.OpDreturn),
	}
	u, err := bytecode.Assemble(name, code, pool, nil, 0, bytecode.Returns(ast.Number))
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestKey(t *testing.T) {
	a := Key([]byte("var x = 1;"), "strict=false")
	if a != Key([]byte("var x = 1;"), "strict=false") {
		t.Error("key is not deterministic")
	}
	if a == Key([]byte("var x = 1;"), "strict=true") {
		t.Error("options do not affect the key")
	}
	if a == Key([]byte("var x = 2;"), "strict=false") {
		t.Error("source does not affect the key")
	}
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64", len(a))
	}
}

func TestPutGet(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	key := Key([]byte("src"), "")
	if _, ok := m.Get(key); ok {
		t.Fatal("empty cache returned a hit")
	}

	u := testUnit(t, "answer")
	if err := m.Put(key, "answer.lox", u); err != nil {
		t.Fatal(err)
	}

	got, ok := m.Get(key)
	if !ok {
		t.Fatal("expected a hit")
	}
	if got.Name != "answer" || got.MaxStack != u.MaxStack || bytecode.FormatCode(got.Code) != bytecode.FormatCode(u.Code) {
		t.Errorf("cached unit differs: %+v", got)
	}

	stats := m.Stats()
	if stats.TotalEntries != 1 || stats.TotalSize <= 0 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestIndexPersists(t *testing.T) {
	dir := t.TempDir()
	key := Key([]byte("src"), "")

	m, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Put(key, "a.lox", testUnit(t, "a")); err != nil {
		t.Fatal(err)
	}

	reopened, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reopened.Get(key); !ok {
		t.Error("entry lost after reopening")
	}
}

func TestAccessPersists(t *testing.T) {
	dir := t.TempDir()
	keys := []string{Key([]byte("a"), ""), Key([]byte("b"), "")}

	m, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range keys {
		if err := m.Put(k, k, testUnit(t, "u")); err != nil {
			t.Fatal(err)
		}
	}
	m.index.Entries[keys[0]].AccessedAt = m.index.Entries[keys[0]].AccessedAt.Add(-time.Hour)
	m.index.Entries[keys[1]].AccessedAt = m.index.Entries[keys[1]].AccessedAt.Add(-time.Minute)
	for i := 0; i < 2; i++ {
		if _, ok := m.Get(keys[0]); !ok {
			t.Fatal("expected a hit")
		}
	}

	reopened, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		key   string
		count int
	}{
		{keys[0], 2},
		{keys[1], 0},
	}
	for _, tt := range tests {
		t.Run(tt.key[:8], func(t *testing.T) {
			if got := reopened.index.Entries[tt.key].AccessCount; got != tt.count {
				t.Errorf("AccessCount = %d, want %d", got, tt.count)
			}
		})
	}

	reopened.mu.Lock()
	reopened.evictLRU(1)
	reopened.mu.Unlock()
	if _, ok := reopened.index.Entries[keys[0]]; !ok {
		t.Error("recently read entry was evicted after reopening")
	}
}

func TestCorruptEntryIsDropped(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key([]byte("src"), "")
	if err := m.Put(key, "a.lox", testUnit(t, "a")); err != nil {
		t.Fatal(err)
	}

	file := m.index.Entries[key].File
	if err := os.WriteFile(file, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, ok := m.Get(key); ok {
		t.Error("corrupt entry returned a hit")
	}
	if _, ok := m.index.Entries[key]; ok {
		t.Error("corrupt entry still indexed")
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Error("corrupt file not removed")
	}
}

func TestClearAndVersion(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	key := Key([]byte("src"), "")
	if err := m.Put(key, "a.lox", testUnit(t, "a")); err != nil {
		t.Fatal(err)
	}

	// 旧版本索引会被整体清空
	m.index.Version = "0"
	if err := m.saveIndex(); err != nil {
		t.Fatal(err)
	}
	reopened, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Stats().TotalEntries != 0 {
		t.Error("stale index survived a version change")
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*"+bytecode.ArtifactExtension))
	if len(matches) != 0 {
		t.Errorf("artifacts left after clear: %v", matches)
	}
}

func TestDisabled(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m.Disable()
	key := Key([]byte("src"), "")
	if err := m.Put(key, "a.lox", testUnit(t, "a")); err != nil {
		t.Fatal(err)
	}
	m.Enable()
	if _, ok := m.Get(key); ok {
		t.Error("disabled cache stored an entry")
	}
}

func TestEvictLRU(t *testing.T) {
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	keys := []string{Key([]byte("a"), ""), Key([]byte("b"), ""), Key([]byte("c"), "")}
	for _, k := range keys {
		if err := m.Put(k, k, testUnit(t, "u")); err != nil {
			t.Fatal(err)
		}
	}
	m.index.Entries[keys[1]].AccessedAt = m.index.Entries[keys[1]].AccessedAt.Add(-time.Hour)

	m.mu.Lock()
	m.evictLRU(1)
	m.mu.Unlock()

	if _, ok := m.index.Entries[keys[1]]; ok {
		t.Error("least recently used entry survived")
	}
	if len(m.index.Entries) != 2 {
		t.Errorf("%d entries left, want 2", len(m.index.Entries))
	}
}
