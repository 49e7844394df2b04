package simulator

import (
	"strings"
	"unicode/utf8"
)

const (
	MsgSubjectRequired = "Assunto é obrigatório"
	MsgSubjectTooShort = "Assunto deve ter pelo menos 5 caracteres"
	MsgSubjectTooLong  = "Assunto deve ter no máximo 100 caracteres"
	MsgMessageRequired = "Mensagem é obrigatória"
	MsgMessageTooShort = "Mensagem deve ter pelo menos 10 caracteres"
	MsgMessageTooLong  = "Mensagem deve ter no máximo 500 caracteres"
)

// ContactMessage is the public "talk to us" form.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ValidateContact checks every field, reporting keys by their JSON names.
func ValidateContact(m ContactMessage) map[string]string {
	errs := map[string]string{}
	if r := ValidatePersonName(m.Name); !r.OK() {
		errs["name"] = r.Message()
	}
	if r := ValidateEmail(m.Email); !r.OK() {
		errs["email"] = r.Message()
	}
	if r := ValidatePhone(m.Phone); !r.OK() {
		errs["phone"] = r.Message()
	}
	if msg := boundedText(m.Subject, 5, 100, MsgSubjectRequired, MsgSubjectTooShort, MsgSubjectTooLong); msg != "" {
		errs["subject"] = msg
	}
	if msg := boundedText(m.Message, 10, 500, MsgMessageRequired, MsgMessageTooShort, MsgMessageTooLong); msg != "" {
		errs["message"] = msg
	}
	return errs
}

func boundedText(s string, minLen, maxLen int, reqMsg, shortMsg, longMsg string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return reqMsg
	}
	n := utf8.RuneCountInString(t)
	if n < minLen {
		return shortMsg
	}
	if n > maxLen {
		return longMsg
	}
	return ""
}
