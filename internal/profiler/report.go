package profiler

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/segmentio/encoding/json"
)

// OutputFormat 输出格式
type OutputFormat int

const (
	// FormatText 文本格式
	FormatText OutputFormat = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// ParseFormat 解析 -profile-format 参数
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown profile format %q", s)
}

// WriteProfile 按格式写出报告
func (prof *Profile) WriteProfile(w io.Writer, format OutputFormat) error {
	if format == FormatJSON {
		return prof.writeJSON(w)
	}
	return prof.writeText(w)
}

func (prof *Profile) writeText(w io.Writer) error {
	fmt.Fprintf(w, "Instruction Profile\n")
	fmt.Fprintf(w, "===================\n\n")
	fmt.Fprintf(w, "Instructions: %d\n", prof.Instructions)
	if prof.Duration > 0 {
		fmt.Fprintf(w, "Duration: %s\n", prof.Duration)
	}

	fmt.Fprintf(w, "\n%-16s %10s %8s\n", "Opcode", "Count", "Share")
	fmt.Fprintln(w, strings.Repeat("-", 36))
	for _, st := range prof.Opcodes {
		fmt.Fprintf(w, "%-16s %10d %7.1f%%\n", st.Op, st.Count, prof.share(st.Count))
	}

	if len(prof.HotSites) > 0 {
		fmt.Fprintf(w, "\n%-24s %-16s %10s\n", "Site", "Opcode", "Hits")
		fmt.Fprintln(w, strings.Repeat("-", 52))
		for _, st := range prof.HotSites {
			site := truncateName(fmt.Sprintf("%s:%d", st.Unit, st.PC), 24)
			fmt.Fprintf(w, "%-24s %-16s %10d\n", site, st.Op, st.Hits)
		}
	}

	if len(prof.NativeCalls) > 0 {
		fmt.Fprintf(w, "\nNative calls:\n")
		for _, name := range sortedNames(prof.NativeCalls) {
			fmt.Fprintf(w, "  %-40s %d\n", name, prof.NativeCalls[name])
		}
	}
	return nil
}

type jsonProfile struct {
	DurationNS   int64            `json:"durationNs"`
	Instructions int64            `json:"instructions"`
	Opcodes      []jsonOp         `json:"opcodes"`
	HotSites     []jsonSite       `json:"hotSites"`
	NativeCalls  map[string]int64 `json:"nativeCalls"`
}

type jsonOp struct {
	Op    string `json:"op"`
	Count int64  `json:"count"`
}

type jsonSite struct {
	Unit string `json:"unit"`
	PC   int    `json:"pc"`
	Op   string `json:"op"`
	Hits int64  `json:"hits"`
}

func (prof *Profile) writeJSON(w io.Writer) error {
	out := jsonProfile{
		DurationNS:   prof.Duration.Nanoseconds(),
		Instructions: prof.Instructions,
		Opcodes:      make([]jsonOp, 0, len(prof.Opcodes)),
		HotSites:     make([]jsonSite, 0, len(prof.HotSites)),
		NativeCalls:  prof.NativeCalls,
	}
	for _, st := range prof.Opcodes {
		out.Opcodes = append(out.Opcodes, jsonOp{Op: st.Op.String(), Count: st.Count})
	}
	for _, st := range prof.HotSites {
		out.HotSites = append(out.HotSites, jsonSite{Unit: st.Unit, PC: st.PC, Op: st.Op.String(), Hits: st.Hits})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func (prof *Profile) share(n int64) float64 {
	if prof.Instructions == 0 {
		return 0
	}
	return float64(n) * 100 / float64(prof.Instructions)
}

func sortedNames(m map[string]int64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// truncateName 截断过长的名字
func truncateName(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}
	return name[:maxLen-3] + "..."
}
