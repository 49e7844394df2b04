package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either name a Template and pass its Data, or provide Subject with Text/HTML.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// MessageType tags the queue message with the template name, or "raw".
func (j EmailJob) MessageType() string {
	if j.Template == "" {
		return "raw"
	}
	return "email." + j.Template
}
