package errors

import "strings"

// ============================================================================
// 相似名称查找
// ============================================================================

// FindSimilar 在候选名字中查找编辑距离不超过 maxDistance 的最近者
//
// 距离相同时取先出现的候选，找不到返回空串。
func FindSimilar(name string, candidates []string, maxDistance int) string {
	bestMatch := ""
	bestDistance := maxDistance + 1

	for _, candidate := range candidates {
		if candidate == name {
			continue
		}
		if d := levenshteinDistance(name, candidate); d < bestDistance {
			bestDistance = d
			bestMatch = candidate
		}
	}
	return bestMatch
}

// levenshteinDistance 计算忽略大小写的编辑距离
func levenshteinDistance(s1, s2 string) int {
	a := []rune(strings.ToLower(s1))
	b := []rune(strings.ToLower(s2))
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// 两行滚动
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
