package chat

import "strings"

// Classification 问题领域分类
type Classification string

const (
	InDomain    Classification = "IN_DOMAIN"
	OutOfDomain Classification = "OUT_OF_DOMAIN"
)

// Classifier 判断问题是否属于电影领域，纯函数，不会失败
type Classifier interface {
	Classify(query string) Classification
}

// KeywordClassifier 按子串匹配关键词表。
// 子串匹配会带来误判，例如 "filmore" 命中 "film"，"Who played Neo?" 未命中任何词。
type KeywordClassifier struct {
	keywords []string
}

// NewKeywordClassifier 关键词统一小写并去重，空词忽略
func NewKeywordClassifier(keywords []string) *KeywordClassifier {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return &KeywordClassifier{keywords: out}
}

// Keywords 返回规范化后的关键词表副本
func (c *KeywordClassifier) Keywords() []string {
	return append([]string(nil), c.keywords...)
}

func (c *KeywordClassifier) Classify(query string) Classification {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return OutOfDomain
	}
	for _, k := range c.keywords {
		if strings.Contains(q, k) {
			return InDomain
		}
	}
	return OutOfDomain
}
