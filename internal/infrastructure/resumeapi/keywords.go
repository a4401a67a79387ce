package resumeapi

import (
	"context"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

type KeywordApplier struct {
	client *Client
}

func NewKeywordApplier(client *Client) *KeywordApplier {
	return &KeywordApplier{client: client}
}

func (k *KeywordApplier) ApplyKeywords(ctx context.Context, content string, keywords []string, source domain.SourceType) (string, error) {
	request := map[string]any{
		"resume_html": content,
		"keywords":    keywords,
		"source_type": source,
	}
	var response struct {
		ModifiedHTML string `json:"modified_html"`
	}
	if err := k.client.postJSON(ctx, "apply keywords", "/api/apply-keywords", request, &response); err != nil {
		return "", err
	}
	return response.ModifiedHTML, nil
}
