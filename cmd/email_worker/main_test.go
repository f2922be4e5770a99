package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/piousdev/roel-agency/pkg/mailer"
)

type fakeSender struct {
	err     error
	to      string
	subject string
	html    string
}

func (f *fakeSender) Send(_ context.Context, to, subject, _, html string) error {
	f.to, f.subject, f.html = to, subject, html
	return f.err
}

func TestHandle(t *testing.T) {
	verify, _ := json.Marshal(mailer.NewVerifyEmailJob("Roel", "ann@example.com", "Ann", "https://x.test/verify?token=t", time.Now().Add(time.Hour)))
	unknown, _ := json.Marshal(mailer.EmailJob{To: "ann@example.com", Template: "nope"})
	noRecipient, _ := json.Marshal(mailer.EmailJob{Subject: "hi", Text: "hi"})

	tests := []struct {
		name    string
		body    []byte
		sendErr error
		want    outcome
	}{
		{"rendered and sent", verify, nil, ack},
		{"undecodable", []byte("{"), nil, drop},
		{"unknown template", unknown, nil, drop},
		{"no recipient", noRecipient, nil, drop},
		{"send failure requeues", verify, errors.New("mailgun down"), requeue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := logtest.NewNullLogger()
			s := &fakeSender{err: tt.sendErr}
			if got := handle(context.Background(), logger, s, tt.body); got != tt.want {
				t.Fatalf("outcome = %v, want %v", got, tt.want)
			}
			if tt.want == ack {
				if s.to != "ann@example.com" || !strings.Contains(s.subject, "confirm your email") || !strings.Contains(s.html, "token=t") {
					t.Errorf("unexpected message: %+v", s)
				}
			}
		})
	}
}
