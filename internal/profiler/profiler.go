// profiler.go - 指令级性能分析
//
// 作为 vm.Tracer 挂到虚拟机上，统计：
// 1. 每种操作码的执行次数
// 2. 每个指令位置的命中次数（热点）
// 3. 宿主方法调用次数

package profiler

import (
	"sort"
	"sync"
	"time"

	"github.com/tangzhangming/lye/internal/bytecode"
)

// Profiler 指令分析器
type Profiler struct {
	mu sync.Mutex

	running bool
	start   time.Time
	elapsed time.Duration

	ops     map[bytecode.Opcode]int64
	sites   map[Site]*SiteStats
	natives map[string]int64
	total   int64
}

// Site 指令位置
type Site struct {
	Unit string
	PC   int
}

// SiteStats 单个位置的统计
type SiteStats struct {
	Site
	Op   bytecode.Opcode
	Hits int64
}

// OpStats 单个操作码的统计
type OpStats struct {
	Op    bytecode.Opcode
	Count int64
}

// Profile 分析结果
type Profile struct {
	Duration     time.Duration
	Instructions int64
	Opcodes      []OpStats   // 按次数降序
	HotSites     []SiteStats // 按命中降序
	NativeCalls  map[string]int64
}

// New 创建分析器
func New() *Profiler {
	p := &Profiler{}
	p.Reset()
	return p
}

// Start 开始计时，未调用时只计数不计时
func (p *Profiler) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = true
	p.start = time.Now()
}

// Stop 停止计时
func (p *Profiler) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	p.elapsed += time.Since(p.start)
}

// Instruction 实现 vm.Tracer
func (p *Profiler) Instruction(unit string, pc int, op bytecode.Opcode) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total++
	p.ops[op]++
	site := Site{Unit: unit, PC: pc}
	st, ok := p.sites[site]
	if !ok {
		st = &SiteStats{Site: site, Op: op}
		p.sites[site] = st
	}
	st.Hits++
}

// NativeCall 实现 vm.Tracer
func (p *Profiler) NativeCall(method string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.natives[method]++
}

// Reset 清空统计
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	p.elapsed = 0
	p.ops = make(map[bytecode.Opcode]int64)
	p.sites = make(map[Site]*SiteStats)
	p.natives = make(map[string]int64)
	p.total = 0
}

// Profile 返回当前统计的快照，最多保留 top 个热点，top <= 0 时全部保留
func (p *Profiler) Profile(top int) *Profile {
	p.mu.Lock()
	defer p.mu.Unlock()

	prof := &Profile{
		Duration:     p.elapsed,
		Instructions: p.total,
		NativeCalls:  make(map[string]int64, len(p.natives)),
	}
	if p.running {
		prof.Duration += time.Since(p.start)
	}

	for op, n := range p.ops {
		prof.Opcodes = append(prof.Opcodes, OpStats{Op: op, Count: n})
	}
	sort.Slice(prof.Opcodes, func(i, j int) bool {
		a, b := prof.Opcodes[i], prof.Opcodes[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Op < b.Op
	})

	for _, st := range p.sites {
		prof.HotSites = append(prof.HotSites, *st)
	}
	sort.Slice(prof.HotSites, func(i, j int) bool {
		a, b := prof.HotSites[i], prof.HotSites[j]
		if a.Hits != b.Hits {
			return a.Hits > b.Hits
		}
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		return a.PC < b.PC
	})
	if top > 0 && len(prof.HotSites) > top {
		prof.HotSites = prof.HotSites[:top]
	}

	for name, n := range p.natives {
		prof.NativeCalls[name] = n
	}
	return prof
}
