package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type MailConfig struct {
	Host     string
	Port     int64
	Username string
	Password string
	From     string
	To       string // 逗号分隔的告警收件人
}

// MailNotification SMTP 告警通知
type MailNotification struct {
	cfg MailConfig
}

func NewMailNotification(cfg MailConfig) *MailNotification {
	return &MailNotification{cfg: cfg}
}

func (m *MailNotification) Configured() bool {
	return m.cfg.Host != "" && m.cfg.To != ""
}

func (m *MailNotification) Notify(ctx context.Context, msg AlertMessage) error {
	if !m.Configured() {
		return fmt.Errorf("mail notifier not configured")
	}

	to := strings.Split(m.cfg.To, ",")
	subject := fmt.Sprintf("[LoneGuard] %s alert (severity=%s)", msg.Type, msg.Severity)
	body := fmt.Sprintf(
		"Alert #%d\r\nSession: %d\r\nType: %s\r\nSeverity: %s\r\nCreated: %s\r\n",
		msg.AlertID, msg.SessionID, msg.Type, msg.Severity, msg.CreatedAt.Format("2006-01-02 15:04:05"),
	)
	raw := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, m.cfg.To, subject, body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return smtp.SendMail(addr, auth, m.cfg.From, to, []byte(raw))
}
