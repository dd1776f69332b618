package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

type SMTPNotifier struct {
	host   string
	port   int
	from   string
	to     string
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from, to string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, to: to, logger: logger}
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, runID, inputVideo, errorMsg string) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	msg := buildMessage(n.from, n.to, runID, inputVideo, errorMsg)

	err := smtp.SendMail(addr, nil, n.from, []string{n.to}, []byte(msg))
	if err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", n.to),
			zap.String("run_id", runID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", n.to),
		zap.String("run_id", runID),
	)
	return nil
}

func buildMessage(from, to, runID, inputVideo, errorMsg string) string {
	subject := fmt.Sprintf("HiFiC video compression failed [Run %s]", runID)
	body := fmt.Sprintf(
		"The compression run stopped with an error. Partial outputs were left on disk.\r\n\r\n"+
			"Run ID: %s\r\n"+
			"Input video: %s\r\n"+
			"Error: %s\r\n",
		runID, inputVideo, errorMsg,
	)
	return fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", from, to, subject, body)
}
