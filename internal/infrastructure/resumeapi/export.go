package resumeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

type Renderer struct {
	client *Client
}

func NewRenderer(client *Client) *Renderer {
	return &Renderer{client: client}
}

func (r *Renderer) Render(ctx context.Context, format domain.ExportFormat, html, filename string) ([]byte, error) {
	op := "export " + string(format)
	body, err := json.Marshal(map[string]string{
		"html_content": html,
		"filename":     filename,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", op, err)
	}
	accept := domain.MimePDF
	if format == domain.FormatDOCX {
		accept = domain.MimeDOCX
	}
	return r.client.send(ctx, request{
		operation:   op,
		method:      http.MethodPost,
		path:        "/api/export/" + string(format),
		contentType: "application/json",
		body:        body,
		accept:      accept,
	})
}
