// Package cache 以源码内容为键缓存编译好的单元
//
// 功能：
// 1. 源码与编译选项的内容哈希
// 2. 单元的 CBOR 序列化/反序列化
// 3. 缓存目录与 JSON 索引管理
// 4. LRU 清理策略
package cache

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/segmentio/encoding/json"
	"golang.org/x/crypto/blake2b"

	"github.com/tangzhangming/lye/internal/bytecode"
)

const (
	// Version 缓存格式版本，不匹配时清空
	Version = "1"

	// DefaultDir 默认缓存目录
	DefaultDir = ".lye-cache"

	// MaxEntries 最大条目数
	MaxEntries = 1000

	// MaxSize 最大总大小（字节）
	MaxSize = 64 * 1024 * 1024

	indexFile = "index.json"
)

// Manager 缓存管理器
type Manager struct {
	mu      sync.RWMutex
	dir     string
	index   *Index
	enabled bool
}

// Index 缓存索引
type Index struct {
	Version   string            `json:"version"`
	Entries   map[string]*Entry `json:"entries"`
	TotalSize int64             `json:"total_size"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Entry 缓存条目
type Entry struct {
	Key         string    `json:"key"`
	Source      string    `json:"source"`
	Unit        string    `json:"unit"`
	UnitID      string    `json:"unit_id"`
	File        string    `json:"file"`
	Size        int64     `json:"size"`
	CompiledAt  time.Time `json:"compiled_at"`
	AccessedAt  time.Time `json:"accessed_at"`
	AccessCount int       `json:"access_count"`
}

// Stats 缓存统计信息
type Stats struct {
	TotalEntries int       `json:"total_entries"`
	TotalSize    int64     `json:"total_size"`
	Dir          string    `json:"dir"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// New 打开（必要时创建）dir 下的缓存
func New(dir string) (*Manager, error) {
	m := &Manager{dir: dir, enabled: true}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cache: create directory: %w", err)
	}

	if err := m.loadIndex(); err != nil {
		m.index = newIndex()
	}
	if m.index.Version != Version {
		if err := m.Clear(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func newIndex() *Index {
	return &Index{Version: Version, Entries: make(map[string]*Entry)}
}

// Key 计算缓存键：源码与编译选项描述一起哈希
func Key(source []byte, options string) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(options))
	h.Write([]byte{0})
	h.Write(source)
	return hex.EncodeToString(h.Sum(nil))
}

// Enable 启用缓存
func (m *Manager) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}

// Disable 禁用缓存
func (m *Manager) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

// IsEnabled 检查是否启用
func (m *Manager) IsEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Get 按键取出单元，损坏或不一致的条目会被删除
func (m *Manager) Get(key string) (*bytecode.Unit, bool) {
	if !m.IsEnabled() {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.index.Entries[key]
	if !ok {
		return nil, false
	}

	u, err := m.loadUnit(entry)
	if err != nil {
		m.removeEntryUnsafe(key)
		m.saveIndex()
		return nil, false
	}

	// 访问时间落盘，重新打开后 LRU 顺序仍然有效
	entry.AccessedAt = time.Now()
	entry.AccessCount++
	m.saveIndex()
	return u, true
}

// Put 存入单元，source 只用于展示
func (m *Manager) Put(key, source string, u *bytecode.Unit) error {
	if !m.IsEnabled() {
		return nil
	}

	data, err := bytecode.MarshalUnit(u)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", u.Name, err)
	}
	id, err := bytecode.ID(u)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", u.Name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeEntryUnsafe(key)

	file := filepath.Join(m.dir, key[:32]+bytecode.ArtifactExtension)
	if err := os.WriteFile(file, data, 0644); err != nil {
		return fmt.Errorf("cache: write %s: %w", file, err)
	}

	now := time.Now()
	m.index.Entries[key] = &Entry{
		Key:         key,
		Source:      source,
		Unit:        u.Name,
		UnitID:      id.String(),
		File:        file,
		Size:        int64(len(data)),
		CompiledAt:  now,
		AccessedAt:  now,
		AccessCount: 1,
	}
	m.index.TotalSize += int64(len(data))
	m.index.UpdatedAt = now

	m.cleanupIfNeeded()
	return m.saveIndex()
}

// Invalidate 删除一个条目
func (m *Manager) Invalidate(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeEntryUnsafe(key)
	m.saveIndex()
}

// Clear 清空所有缓存
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := os.ReadDir(m.dir)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() && filepath.Ext(e.Name()) == bytecode.ArtifactExtension {
				os.Remove(filepath.Join(m.dir, e.Name()))
			}
		}
	}

	m.index = newIndex()
	return m.saveIndex()
}

// Stats 获取缓存统计
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		TotalEntries: len(m.index.Entries),
		TotalSize:    m.index.TotalSize,
		Dir:          m.dir,
		UpdatedAt:    m.index.UpdatedAt,
	}
}

// ============================================================================
// 内部方法
// ============================================================================

func (m *Manager) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(m.dir, indexFile))
	if err != nil {
		return err
	}
	idx := &Index{}
	if err := json.Unmarshal(data, idx); err != nil {
		return err
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]*Entry)
	}
	m.index = idx
	return nil
}

func (m *Manager) saveIndex() error {
	data, err := json.MarshalIndent(m.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.dir, indexFile), data, 0644)
}

// loadUnit 读取并校验条目对应的单元，ID 必须与写入时一致
func (m *Manager) loadUnit(entry *Entry) (*bytecode.Unit, error) {
	data, err := os.ReadFile(entry.File)
	if err != nil {
		return nil, err
	}
	u, err := bytecode.UnmarshalUnit(data)
	if err != nil {
		return nil, err
	}
	id, err := bytecode.ID(u)
	if err != nil {
		return nil, err
	}
	if id.String() != entry.UnitID {
		return nil, fmt.Errorf("cache: unit id mismatch for %s", entry.Key)
	}
	return u, nil
}

// removeEntryUnsafe 删除条目（不加锁）
func (m *Manager) removeEntryUnsafe(key string) {
	entry, ok := m.index.Entries[key]
	if !ok {
		return
	}
	os.Remove(entry.File)
	m.index.TotalSize -= entry.Size
	delete(m.index.Entries, key)
}

func (m *Manager) cleanupIfNeeded() {
	if len(m.index.Entries) > MaxEntries {
		m.evictLRU(len(m.index.Entries) - MaxEntries)
	}
	if m.index.TotalSize > MaxSize {
		m.evictBySize(m.index.TotalSize - MaxSize)
	}
}

// sortedByAccess 最久未访问的在前
func (m *Manager) sortedByAccess() []*Entry {
	entries := make([]*Entry, 0, len(m.index.Entries))
	for _, e := range m.index.Entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AccessedAt.Equal(entries[j].AccessedAt) {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].AccessedAt.Before(entries[j].AccessedAt)
	})
	return entries
}

func (m *Manager) evictLRU(count int) {
	entries := m.sortedByAccess()
	for i := 0; i < count && i < len(entries); i++ {
		m.removeEntryUnsafe(entries[i].Key)
	}
}

func (m *Manager) evictBySize(target int64) {
	var reduced int64
	for _, e := range m.sortedByAccess() {
		if reduced >= target {
			break
		}
		reduced += e.Size
		m.removeEntryUnsafe(e.Key)
	}
}
