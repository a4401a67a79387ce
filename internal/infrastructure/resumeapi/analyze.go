package resumeapi

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

type Analyzer struct {
	client *Client
}

func NewAnalyzer(client *Client) *Analyzer {
	return &Analyzer{client: client}
}

type analyzeResponse struct {
	ATSScore        int      `json:"ats_score"`
	MatchedKeywords []string `json:"matched_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	Suggestions     []string `json:"suggestions"`
	ResumeText      string   `json:"resume_text"`
	ResumeHTML      *string  `json:"resume_html"`
	JobTitle        *string  `json:"job_title"`
	SourceType      *string  `json:"source_type"`
}

func (a *Analyzer) Analyze(ctx context.Context, resume domain.ResumeFile, jobDescription string) (domain.AnalysisResult, error) {
	const op = "analyze"

	body, contentType, err := analyzeForm(resume, jobDescription)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("build %s form: %w", op, err)
	}
	raw, err := a.client.send(ctx, request{
		operation:   op,
		method:      http.MethodPost,
		path:        "/api/analyze",
		contentType: contentType,
		body:        body,
	})
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	if err := validateAgainst(a.client.schema, raw); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%s: %w", op, err)
	}

	var resp analyzeResponse
	if err := decode(op, raw, &resp); err != nil {
		return domain.AnalysisResult{}, err
	}
	return resp.toDomain(resume.SourceType), nil
}

func (r analyzeResponse) toDomain(uploaded domain.SourceType) domain.AnalysisResult {
	result := domain.AnalysisResult{
		ATSScore:        min(max(r.ATSScore, 0), 100),
		MatchedKeywords: r.MatchedKeywords,
		MissingKeywords: r.MissingKeywords,
		Suggestions:     r.Suggestions,
		ResumeText:      r.ResumeText,
		SourceType:      uploaded,
	}
	if r.ResumeHTML != nil {
		result.ResumeHTML = *r.ResumeHTML
	}
	if r.JobTitle != nil {
		result.JobTitle = strings.TrimSpace(*r.JobTitle)
	}
	if r.SourceType != nil {
		if st := domain.SourceType(strings.ToLower(*r.SourceType)); st.Valid() {
			result.SourceType = st
		}
	}
	return result.Clone()
}

func analyzeForm(resume domain.ResumeFile, jobDescription string) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="resume"; filename=%q`, resume.Name))
	mimeType := resume.MimeType
	if mimeType == "" {
		mimeType = resume.SourceType.MimeType()
	}
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(resume.Data); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("job_description", jobDescription); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}
