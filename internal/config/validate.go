package config

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError 启动期配置错误，不可恢复
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

// Validate 校验 API 服务所需的全部配置
func (c *Config) Validate() error {
	errs := []error{c.ValidateRetrieval()}

	provider, ok := c.LLM.Providers[c.LLM.DefaultProvider]
	switch {
	case strings.TrimSpace(c.LLM.DefaultProvider) == "":
		errs = append(errs, invalid("llm.default_provider", "is required"))
	case !ok:
		errs = append(errs, invalid("llm.providers."+c.LLM.DefaultProvider, "provider is not configured"))
	default:
		field := "llm.providers." + c.LLM.DefaultProvider
		if strings.TrimSpace(provider.APIKey) == "" {
			errs = append(errs, invalid(field+".api_key", "is required"))
		}
		if strings.TrimSpace(provider.Model) == "" {
			errs = append(errs, invalid(field+".model", "is required"))
		}
	}

	ch := c.Chat
	if len(ch.DomainKeywords) == 0 {
		errs = append(errs, invalid("chat.domain_keywords", "must not be empty"))
	}
	if ch.TopK <= 0 {
		errs = append(errs, invalid("chat.top_k", "must be positive"))
	}
	if ch.RetrievalFailurePolicy != PolicyDegrade && ch.RetrievalFailurePolicy != PolicyAbort {
		errs = append(errs, invalid("chat.retrieval_failure_policy", fmt.Sprintf("unknown policy %q", ch.RetrievalFailurePolicy)))
	}
	if ch.Timeouts.Embedding <= 0 || ch.Timeouts.Search <= 0 || ch.Timeouts.Completion <= 0 {
		errs = append(errs, invalid("chat.timeouts", "all timeouts must be positive"))
	}
	if ch.Pricing.InputPerMillion < 0 || ch.Pricing.OutputPerMillion < 0 {
		errs = append(errs, invalid("chat.pricing", "rates must not be negative"))
	}
	if ch.Pricing.CurrencyMultiplier <= 0 {
		errs = append(errs, invalid("chat.pricing.currency_multiplier", "must be positive"))
	}
	if ch.MaxOverviewRunes < 0 {
		errs = append(errs, invalid("chat.max_overview_runes", "must not be negative"))
	}

	return errors.Join(errs...)
}

// ValidateRetrieval 校验 embedding 与向量库配置，供导入工具单独使用
func (c *Config) ValidateRetrieval() error {
	var errs []error
	if strings.TrimSpace(c.Embedding.APIKey) == "" {
		errs = append(errs, invalid("embedding.api_key", "is required"))
	}
	if strings.TrimSpace(c.Embedding.Endpoint) == "" {
		errs = append(errs, invalid("embedding.endpoint", "is required"))
	}
	if strings.TrimSpace(c.Embedding.Model) == "" {
		errs = append(errs, invalid("embedding.model", "is required"))
	}
	if c.Embedding.Dimension <= 0 {
		errs = append(errs, invalid("embedding.dimension", "must be positive"))
	}
	if strings.TrimSpace(c.Vector.Milvus.Host) == "" || c.Vector.Milvus.Port <= 0 {
		errs = append(errs, invalid("vector.milvus", "host and port are required"))
	}
	if strings.TrimSpace(c.Vector.Milvus.Collection) == "" {
		errs = append(errs, invalid("vector.milvus.collection", "is required"))
	}
	return errors.Join(errs...)
}
