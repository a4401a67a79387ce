package domain

import (
	"strings"
	"time"
)

type SourceType string

const (
	SourcePDF  SourceType = "pdf"
	SourceDOCX SourceType = "docx"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

func (s SourceType) Valid() bool {
	return s == SourcePDF || s == SourceDOCX
}

func (s SourceType) MimeType() string {
	switch s {
	case SourcePDF:
		return MimePDF
	case SourceDOCX:
		return MimeDOCX
	default:
		return ""
	}
}

// ResumeFile is an uploaded resume with its metadata.
type ResumeFile struct {
	Name       string     `json:"name" validate:"required"`
	Size       int64      `json:"size" validate:"gt=0"`
	MimeType   string     `json:"mime_type"`
	SourceType SourceType `json:"source_type" validate:"oneof=pdf docx"`
	Pages      int        `json:"pages,omitempty"`
	Data       []byte     `json:"-"`
}

type UploadInput struct {
	Resume         *ResumeFile `validate:"required"`
	JobDescription string      `validate:"required"`
}

// Ready reports whether submission may be enabled.
func (in UploadInput) Ready() bool {
	return in.Resume != nil && strings.TrimSpace(in.JobDescription) != ""
}

type AnalysisResult struct {
	ATSScore        int        `json:"ats_score"`
	MatchedKeywords []string   `json:"matched_keywords"`
	MissingKeywords []string   `json:"missing_keywords"`
	Suggestions     []string   `json:"suggestions"`
	JobTitle        string     `json:"job_title,omitempty"`
	ResumeText      string     `json:"resume_text"`
	ResumeHTML      string     `json:"resume_html,omitempty"`
	SourceType      SourceType `json:"source_type"`
}

// Content is what the keyword rewrite receives: HTML when the service produced
// it, plain text otherwise.
func (r AnalysisResult) Content() string {
	if strings.TrimSpace(r.ResumeHTML) != "" {
		return r.ResumeHTML
	}
	return r.ResumeText
}

// Clone returns a deep copy so callers never share slices with the controller.
func (r AnalysisResult) Clone() AnalysisResult {
	out := r
	out.MatchedKeywords = cloneStrings(r.MatchedKeywords)
	out.MissingKeywords = cloneStrings(r.MissingKeywords)
	out.Suggestions = cloneStrings(r.Suggestions)
	return out
}

func ScoreLabel(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	default:
		return "Needs Work"
	}
}

// HistoryEntry is a snapshot before the store assigns id and creation time.
type HistoryEntry struct {
	JobTitle        string     `json:"job_title"`
	JobDescription  string     `json:"job_description"`
	ResumeText      string     `json:"resume_text"`
	ResumeHTML      string     `json:"resume_html,omitempty"`
	ATSScore        int        `json:"ats_score"`
	MatchedKeywords []string   `json:"matched_keywords"`
	MissingKeywords []string   `json:"missing_keywords"`
	Suggestions     []string   `json:"suggestions"`
	FinalResumeHTML string     `json:"final_resume_html,omitempty"`
	SourceType      SourceType `json:"source_type,omitempty"`
}

type HistorySnapshot struct {
	ID string `json:"id"`
	HistoryEntry
	CreatedAt time.Time `json:"created_at"`
}

func NewHistoryEntry(result AnalysisResult, jobDescription string) HistoryEntry {
	return HistoryEntry{
		JobTitle:        result.JobTitle,
		JobDescription:  jobDescription,
		ResumeText:      result.ResumeText,
		ResumeHTML:      result.ResumeHTML,
		ATSScore:        result.ATSScore,
		MatchedKeywords: cloneStrings(result.MatchedKeywords),
		MissingKeywords: cloneStrings(result.MissingKeywords),
		Suggestions:     cloneStrings(result.Suggestions),
		SourceType:      result.SourceType,
	}
}

// OriginResult reconstructs the partial analysis a snapshot was made from.
func (s HistorySnapshot) OriginResult() AnalysisResult {
	return AnalysisResult{
		ATSScore:        s.ATSScore,
		MatchedKeywords: cloneStrings(s.MatchedKeywords),
		MissingKeywords: cloneStrings(s.MissingKeywords),
		Suggestions:     cloneStrings(s.Suggestions),
		JobTitle:        s.JobTitle,
		ResumeText:      s.ResumeText,
		ResumeHTML:      s.ResumeHTML,
		SourceType:      s.SourceType,
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
