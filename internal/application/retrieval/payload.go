package retrieval

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// payload 字段名，与导入时写入的 JSON 保持一致
const (
	payloadTitle    = "title"
	payloadYear     = "year"
	payloadGenre    = "genre"
	payloadRating   = "rating"
	payloadOverview = "overview"
	payloadDirector = "director"
)

// MoviePayload 将电影记录编码为写入向量库的 payload
func MoviePayload(m Movie) map[string]any {
	return map[string]any{
		payloadTitle:    m.Title,
		payloadYear:     m.Year,
		payloadGenre:    m.Genre,
		payloadRating:   m.Rating,
		payloadOverview: m.Overview,
		payloadDirector: m.Director,
	}
}

// movieFromPayload 解码 payload，缺失或空字段填充 UnknownField
func movieFromPayload(id string, score float32, payload map[string]any) Movie {
	return Movie{
		ID:       strings.TrimSpace(id),
		Title:    payloadString(payload, payloadTitle),
		Year:     payloadString(payload, payloadYear),
		Genre:    payloadString(payload, payloadGenre),
		Rating:   payloadString(payload, payloadRating),
		Overview: payloadString(payload, payloadOverview),
		Director: payloadString(payload, payloadDirector),
		Score:    float64(score),
	}
}

func payloadString(payload map[string]any, key string) string {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return UnknownField
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case json.Number:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownField
	}
	return s
}
