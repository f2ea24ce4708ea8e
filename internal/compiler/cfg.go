package compiler

import (
	"fmt"

	"github.com/tangzhangming/lye/internal/bytecode"
)

// ============================================================================
// 基本块
// ============================================================================
//
// 条件语句先降级到基本块，再由 Flatten 排成线性指令：
//   - 块内只有直线指令，最后挂一个终结符
//   - 后继用块 ID 表示，直到 Flatten 的最后一步才换算成指令下标
//   - 不可达的块直接丢弃
//
// ============================================================================

// termKind 基本块终结符
type termKind int

const (
	termOpen        termKind = iota // 尚未封口
	termFallthrough                 // 顺序流入 next
	termGoto                        // goto next
	termIfeq                        // ifeq alt，否则流入 next
	termReturn                      // 块内最后一条指令是返回
)

// BasicBlock 基本块
type BasicBlock struct {
	ID   int
	Code []bytecode.Instruction

	term termKind
	next int // 顺序后继 / goto 目标
	alt  int // ifeq 的跳转目标
	line int // 终结符所在行
}

// Successors 返回后继块 ID
func (bb *BasicBlock) Successors() []int {
	switch bb.term {
	case termFallthrough, termGoto:
		return []int{bb.next}
	case termIfeq:
		return []int{bb.next, bb.alt}
	}
	return nil
}

// Terminated 块是否已经封口
func (bb *BasicBlock) Terminated() bool {
	return bb.term != termOpen
}

// CFG 一个单元的控制流图，块按创建顺序排列
type CFG struct {
	Blocks []*BasicBlock
}

// NewCFG 创建只含入口块的控制流图
func NewCFG() *CFG {
	g := &CFG{}
	g.NewBlock()
	return g
}

// NewBlock 创建新的空块
func (g *CFG) NewBlock() *BasicBlock {
	bb := &BasicBlock{ID: len(g.Blocks)}
	g.Blocks = append(g.Blocks, bb)
	return bb
}

// Entry 返回入口块
func (g *CFG) Entry() *BasicBlock {
	return g.Blocks[0]
}

func (bb *BasicBlock) emit(in bytecode.Instruction) {
	bb.Code = append(bb.Code, in)
}

func (bb *BasicBlock) seal(kind termKind, next, alt, line int) {
	if bb.term != termOpen {
		panic(fmt.Sprintf("compiler: block %d terminated twice", bb.ID))
	}
	bb.term, bb.next, bb.alt, bb.line = kind, next, alt, line
}

// Fallthrough 顺序流入 next
func (bb *BasicBlock) Fallthrough(next *BasicBlock, line int) {
	bb.seal(termFallthrough, next.ID, -1, line)
}

// Goto 无条件跳到 target
func (bb *BasicBlock) Goto(target *BasicBlock, line int) {
	bb.seal(termGoto, target.ID, -1, line)
}

// Ifeq 栈顶为 0 时跳到 onFalse，否则流入 onTrue
func (bb *BasicBlock) Ifeq(onTrue, onFalse *BasicBlock, line int) {
	bb.seal(termIfeq, onTrue.ID, onFalse.ID, line)
}

// Return 以返回指令封口
func (bb *BasicBlock) Return(op bytecode.Opcode, line int) {
	bb.emit(bytecode.Instruction{Op: op, Line: line})
	bb.seal(termReturn, -1, -1, line)
}

// reachable 从入口出发标记可达的块
func (g *CFG) reachable() []bool {
	seen := make([]bool, len(g.Blocks))
	stack := []int{0}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, g.Blocks[id].Successors()...)
	}
	return seen
}

// Flatten 把可达块按创建顺序排成线性指令序列
//
// 顺序后继不相邻时补一条 goto；与下一块相邻的 goto 省略。
// 没有指令的转发块（例如省略的 else）不计入相邻关系，跳到它等于跳到它的后继。
// 块 ID 在最后一步统一换算为指令下标。
func (g *CFG) Flatten() ([]bytecode.Instruction, error) {
	seen := g.reachable()

	var layout []*BasicBlock
	for _, bb := range g.Blocks {
		if !seen[bb.ID] {
			continue
		}
		if bb.term == termOpen {
			return nil, fmt.Errorf("compiler: reachable block %d has no terminator", bb.ID)
		}
		layout = append(layout, bb)
	}

	// forward 跳过空的转发块，返回真正执行指令的块
	forward := func(id int) int {
		for steps := 0; id >= 0 && steps < len(g.Blocks); steps++ {
			bb := g.Blocks[id]
			if len(bb.Code) > 0 || (bb.term != termFallthrough && bb.term != termGoto) {
				break
			}
			id = bb.next
		}
		return id
	}

	// 每块之后紧邻的块 ID，-1 表示末尾
	following := make(map[int]int, len(layout))
	for i, bb := range layout {
		following[bb.ID] = -1
		if i+1 < len(layout) {
			following[bb.ID] = forward(layout[i+1].ID)
		}
	}

	needsJump := func(bb *BasicBlock) bool {
		switch bb.term {
		case termFallthrough, termGoto, termIfeq:
			return following[bb.ID] != forward(bb.next)
		}
		return false
	}

	// 第一遍：块起始下标
	start := make(map[int]int, len(layout))
	n := 0
	for _, bb := range layout {
		start[bb.ID] = n
		n += len(bb.Code)
		if bb.term == termIfeq {
			n++
		}
		if needsJump(bb) {
			n++
		}
	}

	// 第二遍：写出指令并解析目标
	code := make([]bytecode.Instruction, 0, n)
	for _, bb := range layout {
		code = append(code, bb.Code...)
		if bb.term == termIfeq {
			code = append(code, bytecode.Instruction{Op: bytecode.OpIfeq, Arg: start[forward(bb.alt)], Line: bb.line})
		}
		if needsJump(bb) {
			code = append(code, bytecode.Instruction{Op: bytecode.OpGoto, Arg: start[forward(bb.next)], Line: bb.line})
		}
	}
	return code, nil
}
