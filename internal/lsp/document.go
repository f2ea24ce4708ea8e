package lsp

import (
	"sync"

	"github.com/tangzhangming/lye/internal/bytecode"
	"github.com/tangzhangming/lye/internal/compiler"
	"github.com/tangzhangming/lye/internal/frontend"
)

// Document 表示一个打开的文档
type Document struct {
	URI     string
	Path    string
	Content string
	Version int32

	// 最近一次检查的结果，Err 为 nil 时 Unit 有效
	Unit *bytecode.Unit
	Err  error
}

// check 解析并编译当前内容
func (d *Document) check(cfg *compiler.Config) {
	d.Unit, d.Err = nil, nil
	root, err := frontend.FromSource(d.Content, d.Path)
	if err != nil {
		d.Err = err
		return
	}
	d.Unit, d.Err = compiler.Compile(unitName(d.Path), root, cfg)
}

// DocumentManager 文档管理器
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[string]*Document
	cfg       *compiler.Config
}

// NewDocumentManager 创建文档管理器，cfg 为 nil 时使用默认编译选项
func NewDocumentManager(cfg *compiler.Config) *DocumentManager {
	if cfg == nil {
		cfg = compiler.DefaultConfig()
	}
	return &DocumentManager{
		documents: make(map[string]*Document),
		cfg:       cfg,
	}
}

// Open 打开文档并立即检查
func (dm *DocumentManager) Open(docURI, content string, version int32) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc := &Document{
		URI:     docURI,
		Path:    uriToPath(docURI),
		Content: content,
		Version: version,
	}
	doc.check(dm.cfg)
	dm.documents[docURI] = doc
	return doc
}

// Update 整体替换文档内容，未打开的文档返回 nil
func (dm *DocumentManager) Update(docURI, content string, version int32) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.documents[docURI]
	if !ok {
		return nil
	}
	doc.Content = content
	doc.Version = version
	doc.check(dm.cfg)
	return doc
}

// Get 获取文档
func (dm *DocumentManager) Get(docURI string) *Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.documents[docURI]
}

// Close 关闭文档
func (dm *DocumentManager) Close(docURI string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.documents, docURI)
}

// Len 打开的文档数
func (dm *DocumentManager) Len() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return len(dm.documents)
}
