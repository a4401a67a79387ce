package usecase

import (
	"context"
	"strings"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
	"github.com/kirillkom/resume-tailor/internal/core/ports"
)

type ApplyKeywordsUseCase struct {
	applier ports.KeywordApplier
}

func NewApplyKeywordsUseCase(applier ports.KeywordApplier) *ApplyKeywordsUseCase {
	return &ApplyKeywordsUseCase{applier: applier}
}

// Apply asks the remote service to weave keywords into content. The caller
// gates on a non-empty selection.
func (uc *ApplyKeywordsUseCase) Apply(
	ctx context.Context,
	content string,
	keywords []string,
	source domain.SourceType,
) (string, error) {
	modified, err := uc.applier.ApplyKeywords(ctx, content, keywords, source)
	if err != nil {
		return "", domain.WrapError(domain.ErrKeywordApplication, "apply keywords", err)
	}
	return stripMarkdownFence(modified), nil
}

func stripMarkdownFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return raw
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}
	lines = lines[1:]
	if last := strings.TrimSpace(lines[len(lines)-1]); strings.HasPrefix(last, "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
