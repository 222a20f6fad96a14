package retrieval

// UnknownField 索引记录缺失字段时的占位值
const UnknownField = "unknown"

// Movie 一条召回的电影记录，返回后不再修改。
// Rating 保留文本形式，以便表达 UnknownField。
type Movie struct {
	ID       string
	Title    string
	Year     string
	Genre    string
	Rating   string
	Overview string
	Director string

	// Score 相似度，越大越相关
	Score float64
}

// Result 一次检索的有序结果（按相关度降序，长度不超过 topK）。
// 非 nil 且无条目表示“检索成功但无命中”，nil 表示未执行检索。
type Result struct {
	Query  string
	Movies []Movie
}

// Empty 是否为无命中结果
func (r *Result) Empty() bool {
	return r == nil || len(r.Movies) == 0
}

// Len 命中数量
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Movies)
}
