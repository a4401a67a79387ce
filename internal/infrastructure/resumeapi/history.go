package resumeapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

// HistoryStore keeps snapshots in the remote service.
type HistoryStore struct {
	client *Client
	now    func() time.Time
}

func NewHistoryStore(client *Client) *HistoryStore {
	return &HistoryStore{client: client, now: time.Now}
}

type historyItem struct {
	ID              string   `json:"id"`
	JobTitle        *string  `json:"job_title"`
	JobDescription  string   `json:"job_description"`
	ResumeText      string   `json:"resume_text"`
	ResumeHTML      *string  `json:"resume_html,omitempty"`
	ATSScore        int      `json:"ats_score"`
	MatchedKeywords []string `json:"matched_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	Suggestions     []string `json:"suggestions"`
	FinalResumeHTML *string  `json:"final_resume_html"`
	SourceType      *string  `json:"source_type,omitempty"`
	CreatedAt       string   `json:"created_at"`
}

func (h *HistoryStore) List(ctx context.Context) ([]domain.HistorySnapshot, error) {
	var items []historyItem
	if err := h.client.getJSON(ctx, "list history", "/api/history", &items); err != nil {
		return nil, err
	}
	out := make([]domain.HistorySnapshot, 0, len(items))
	for _, item := range items {
		out = append(out, item.toDomain())
	}
	return out, nil
}

func (h *HistoryStore) Get(ctx context.Context, id string) (*domain.HistorySnapshot, error) {
	var item historyItem
	err := h.client.getJSON(ctx, "get history", "/api/history/"+url.PathEscape(id), &item)
	if err != nil {
		var svcErr *domain.ServiceError
		if errors.As(err, &svcErr) && svcErr.StatusCode == http.StatusNotFound {
			return nil, domain.WrapError(domain.ErrNotFound, "get history", err)
		}
		return nil, err
	}
	snapshot := item.toDomain()
	return &snapshot, nil
}

func (h *HistoryStore) Create(ctx context.Context, entry domain.HistoryEntry) (*domain.HistorySnapshot, error) {
	request := map[string]any{
		"job_title":         entry.JobTitle,
		"job_description":   entry.JobDescription,
		"resume_text":       entry.ResumeText,
		"ats_score":         entry.ATSScore,
		"matched_keywords":  entry.MatchedKeywords,
		"missing_keywords":  entry.MissingKeywords,
		"suggestions":       entry.Suggestions,
		"final_resume_html": nullable(entry.FinalResumeHTML),
	}
	if entry.ResumeHTML != "" {
		request["resume_html"] = entry.ResumeHTML
	}
	if entry.SourceType != "" {
		request["source_type"] = entry.SourceType
	}

	var item historyItem
	if err := h.client.postJSON(ctx, "create history", "/api/history", request, &item); err != nil {
		return nil, err
	}
	if item.ID == "" {
		// acknowledgement without a row
		return &domain.HistorySnapshot{HistoryEntry: entry, CreatedAt: h.now().UTC()}, nil
	}
	snapshot := item.toDomain()
	return &snapshot, nil
}

func (h *HistoryStore) Delete(ctx context.Context, id string) error {
	_, err := h.client.send(ctx, request{
		operation: "delete history",
		method:    http.MethodDelete,
		path:      "/api/history/" + url.PathEscape(id),
	})
	return err
}

func (i historyItem) toDomain() domain.HistorySnapshot {
	snapshot := domain.HistorySnapshot{
		ID: i.ID,
		HistoryEntry: domain.HistoryEntry{
			JobTitle:        deref(i.JobTitle),
			JobDescription:  i.JobDescription,
			ResumeText:      i.ResumeText,
			ResumeHTML:      deref(i.ResumeHTML),
			ATSScore:        i.ATSScore,
			MatchedKeywords: orEmpty(i.MatchedKeywords),
			MissingKeywords: orEmpty(i.MissingKeywords),
			Suggestions:     orEmpty(i.Suggestions),
			FinalResumeHTML: deref(i.FinalResumeHTML),
			SourceType:      domain.SourceType(deref(i.SourceType)),
		},
	}
	if ts, err := time.Parse(time.RFC3339Nano, i.CreatedAt); err == nil {
		snapshot.CreatedAt = ts
	}
	return snapshot
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
