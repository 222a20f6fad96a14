package milvus

import (
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// 集合字段
const (
	FieldID       = "id"
	FieldVector   = "vector"
	FieldTitle    = "title"
	FieldYear     = "year"
	FieldGenre    = "genre"
	FieldRating   = "rating"
	FieldOverview = "overview"
	FieldDirector = "director"
)

// DefaultCollection 电影集合默认名称（未加前缀）
const DefaultCollection = "imdb_movies"

// payloadFields 与 retrieval.MoviePayload 的 key 一一对应
var payloadFields = []string{FieldTitle, FieldYear, FieldGenre, FieldRating, FieldOverview, FieldDirector}

// MovieSchema 电影集合 Schema
func MovieSchema(name string, dim int) *entity.Schema {
	fields := []*entity.Field{
		{
			Name:       FieldID,
			DataType:   entity.FieldTypeVarChar,
			PrimaryKey: true,
			AutoID:     false,
			TypeParams: map[string]string{
				"max_length": "64",
			},
		},
		{
			Name:     FieldVector,
			DataType: entity.FieldTypeFloatVector,
			TypeParams: map[string]string{
				"dim": strconv.Itoa(dim),
			},
		},
	}
	for _, f := range payloadFields {
		fields = append(fields, &entity.Field{
			Name:     f,
			DataType: entity.FieldTypeVarChar,
			TypeParams: map[string]string{
				"max_length": strconv.Itoa(maxLength(f)),
			},
		})
	}
	return &entity.Schema{
		CollectionName: name,
		Description:    "IMDb movies for semantic search",
		Fields:         fields,
	}
}

// maxLength VarChar 字段字节上限
func maxLength(field string) int {
	switch field {
	case FieldOverview:
		return 8192
	case FieldYear, FieldRating:
		return 16
	default:
		return 512
	}
}

// metricType 配置值转换为 Milvus 度量类型，未知值按 COSINE 处理
func metricType(s string) entity.MetricType {
	switch s {
	case "L2":
		return entity.L2
	case "IP":
		return entity.IP
	default:
		return entity.COSINE
	}
}
