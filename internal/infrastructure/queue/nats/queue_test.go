package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
	"github.com/kirillkom/resume-tailor/internal/infrastructure/resilience"
)

func TestClassifyNATSError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want resilience.ErrorClassification
	}{
		{"canceled", context.Canceled, resilience.ErrorClassification{}},
		{"no servers", fmt.Errorf("nats publish: %w", nats.ErrNoServers), resilience.ErrorClassification{Retryable: true, RecordFailure: true}},
		{"closed", nats.ErrConnectionClosed, resilience.ErrorClassification{Retryable: true, RecordFailure: true}},
		{"payload", nats.ErrMaxPayload, resilience.ErrorClassification{Retryable: false, RecordFailure: true}},
	}
	for _, tc := range cases {
		if got := classifyNATSError(tc.err); got != tc.want {
			t.Fatalf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(nats.ErrDisconnected)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	permanent := errors.New("bad subject")
	if got := wrapTemporaryIfNeeded(permanent); got != permanent {
		t.Fatalf("permanent error must pass through, got %v", got)
	}
}

func TestSubjectForSession(t *testing.T) {
	pub := newPublisher(nil, "tailor.workflow", nil)
	if got := pub.subjectFor("s-1"); got != "tailor.workflow.s-1" {
		t.Fatalf("unexpected subject %q", got)
	}
	if got := pub.subjectFor(""); got != "tailor.workflow" {
		t.Fatalf("unexpected subject %q", got)
	}
}
