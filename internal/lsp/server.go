// Package lsp 通过语言服务器协议向编辑器发布编译诊断
package lsp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/segmentio/encoding/json"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/tangzhangming/lye/internal/compiler"
)

// codeMethodNotFound JSON-RPC 方法不存在
const codeMethodNotFound = -32601

// Server LSP 服务器，只做全量同步和诊断
type Server struct {
	documents *DocumentManager
	log       *zap.Logger

	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex

	shutdown bool
}

// NewServer 创建 LSP 服务器
func NewServer(in io.Reader, out io.Writer, cfg *compiler.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		documents: NewDocumentManager(cfg),
		log:       log,
		reader:    bufio.NewReader(in),
		writer:    out,
	}
}

// Documents 返回文档管理器
func (s *Server) Documents() *DocumentManager { return s.documents }

// Run 主循环，读到 EOF 或收到 exit 时返回
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("language server started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := s.readMessage()
		if err != nil {
			if err == io.EOF {
				s.log.Info("client disconnected")
				return nil
			}
			return err
		}

		s.handleMessage(msg)

		if s.shutdown {
			s.log.Info("server shutdown")
			return nil
		}
	}
}

// readMessage 读取一条带 Content-Length 头的消息
func (s *Server) readMessage() ([]byte, error) {
	var contentLength int
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "Content-Length:") {
			n := strings.TrimSpace(strings.TrimPrefix(line, "Content-Length:"))
			contentLength, err = strconv.Atoi(n)
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %s", n)
			}
		}
	}
	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	content := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, content); err != nil {
		return nil, err
	}
	return content, nil
}

func (s *Server) sendMessage(msg interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(content)); err != nil {
		return err
	}
	_, err = s.writer.Write(content)
	return err
}

func (s *Server) handleMessage(msg []byte) {
	var base struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id,omitempty"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}
	if err := json.Unmarshal(msg, &base); err != nil {
		s.log.Warn("malformed message", zap.Error(err))
		return
	}
	s.log.Debug("received", zap.String("method", base.Method))

	switch base.Method {
	case "initialize":
		s.handleInitialize(base.ID)
	case "initialized", "$/cancelRequest":
	case "shutdown":
		s.sendResult(base.ID, nil)
	case "exit":
		s.shutdown = true
	case "textDocument/didOpen":
		s.handleDidOpen(base.Params)
	case "textDocument/didChange":
		s.handleDidChange(base.Params)
	case "textDocument/didSave":
		s.handleDidSave(base.Params)
	case "textDocument/didClose":
		s.handleDidClose(base.Params)
	default:
		if base.ID != nil {
			s.sendError(base.ID, codeMethodNotFound, "Method not found: "+base.Method)
		}
	}
}

func (s *Server) handleInitialize(id json.RawMessage) {
	s.sendResult(id, map[string]interface{}{
		"capabilities": map[string]interface{}{
			"textDocumentSync": map[string]interface{}{
				"openClose": true,
				"change":    protocol.TextDocumentSyncKindFull,
				"save":      map[string]interface{}{"includeText": true},
			},
		},
		"serverInfo": map[string]interface{}{"name": Source},
	})
}

func (s *Server) handleDidOpen(params json.RawMessage) {
	var p protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.log.Warn("didOpen", zap.Error(err))
		return
	}
	doc := s.documents.Open(string(p.TextDocument.URI), p.TextDocument.Text, int32(p.TextDocument.Version))
	s.publish(doc)
}

func (s *Server) handleDidChange(params json.RawMessage) {
	var p protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.log.Warn("didChange", zap.Error(err))
		return
	}
	if len(p.ContentChanges) == 0 {
		return
	}
	// 全量同步：最后一次变更即完整内容
	text := p.ContentChanges[len(p.ContentChanges)-1].Text
	if doc := s.documents.Update(string(p.TextDocument.URI), text, int32(p.TextDocument.Version)); doc != nil {
		s.publish(doc)
	}
}

func (s *Server) handleDidSave(params json.RawMessage) {
	var p protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.log.Warn("didSave", zap.Error(err))
		return
	}
	docURI := string(p.TextDocument.URI)
	doc := s.documents.Get(docURI)
	if doc == nil {
		return
	}
	if p.Text != "" {
		doc = s.documents.Update(docURI, p.Text, doc.Version)
	}
	s.publish(doc)
}

func (s *Server) handleDidClose(params json.RawMessage) {
	var p protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.log.Warn("didClose", zap.Error(err))
		return
	}
	s.documents.Close(string(p.TextDocument.URI))

	// 清除诊断
	s.sendNotification("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         p.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
}

func (s *Server) publish(doc *Document) {
	params := Publish(doc.Path, doc.Version, doc.Err)
	params.URI = protocol.DocumentURI(doc.URI)
	s.log.Debug("publish diagnostics",
		zap.String("uri", doc.URI),
		zap.Int("count", len(params.Diagnostics)))
	s.sendNotification("textDocument/publishDiagnostics", params)
}

func (s *Server) sendResult(id json.RawMessage, result interface{}) {
	s.send(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

func (s *Server) sendError(id json.RawMessage, code int, message string) {
	s.send(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}

func (s *Server) sendNotification(method string, params interface{}) {
	s.send(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
}

func (s *Server) send(msg interface{}) {
	if err := s.sendMessage(msg); err != nil {
		s.log.Error("send failed", zap.Error(err))
	}
}

// uriToPath 将 URI 转换为文件路径，非 file URI 原样返回
func uriToPath(docURI string) string {
	if !strings.HasPrefix(docURI, "file://") {
		return docURI
	}
	return uri.URI(docURI).Filename()
}

// unitName 以不带扩展名的文件名作为单元名
func unitName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
