package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mailtpl "github.com/oksasatya/loan-simulator/pkg/mailer/templates"
)

// ErrBadMessage marks a job that can never be delivered and must not be requeued.
var ErrBadMessage = errors.New("bad email job")

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// DecodeJob parses a queue payload. Numbers stay json.Number so templates print them verbatim.
func DecodeJob(body []byte) (EmailJob, error) {
	var job EmailJob
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&job); err != nil {
		return EmailJob{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if strings.TrimSpace(job.To) == "" {
		return EmailJob{}, fmt.Errorf("%w: missing recipient", ErrBadMessage)
	}
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
	job.Template = strings.ToLower(strings.TrimSpace(job.Template))
	return job, nil
}

// Render resolves the subject and bodies of a job, from its template when one is named.
func Render(job EmailJob) (subject, text, html string, err error) {
	if job.Template == "" {
		if job.Subject == "" || (job.Text == "" && job.HTML == "") {
			return "", "", "", fmt.Errorf("%w: empty message", ErrBadMessage)
		}
		return job.Subject, job.Text, job.HTML, nil
	}
	s, t, h, err := mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: render %s: %v", ErrBadMessage, job.Template, err)
	}
	if job.Subject != "" {
		s = job.Subject
	}
	return s, t, h, nil
}

// Handle decodes, renders and sends one queue payload. Errors wrapping
// ErrBadMessage are permanent; any other error is worth a retry.
func Handle(ctx context.Context, body []byte, sender Sender) error {
	job, err := DecodeJob(body)
	if err != nil {
		return err
	}
	subject, text, html, err := Render(job)
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return sender.Send(c, job.To, subject, text, html)
}
