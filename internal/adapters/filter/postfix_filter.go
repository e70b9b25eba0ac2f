package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/bec-analyzer/internal/adapters/ingest"
	"github.com/mikey/bec-analyzer/internal/core"
	"go.uber.org/zap"
)

// PostfixFilter implements a Postfix after-queue content filter. It
// accepts messages over SMTP, scores them for BEC risk, stamps the
// verdict into headers and hands the message back to Postfix.
type PostfixFilter struct {
	holder         *core.Holder
	logger         *zap.Logger
	listenAddr     string
	server         *smtp.Server
	blockCritical  bool
	levelHeader    string
	scoreHeader    string
	factorsHeader  string
	postfixAddr    string
	postfixPort    int
	postfixEnabled bool
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	holder *core.Holder,
	logger *zap.Logger,
	listenAddr string,
	blockCritical bool,
	levelHeader string,
	scoreHeader string,
	factorsHeader string,
	postfixAddr string,
	postfixPort int,
	postfixEnabled bool,
) *PostfixFilter {
	return &PostfixFilter{
		holder:         holder,
		logger:         logger,
		listenAddr:     listenAddr,
		blockCritical:  blockCritical,
		levelHeader:    levelHeader,
		scoreHeader:    scoreHeader,
		factorsHeader:  factorsHeader,
		postfixAddr:    postfixAddr,
		postfixPort:    postfixPort,
		postfixEnabled: postfixEnabled,
	}
}

// Start starts the filter's SMTP listener
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("Postfix filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the filter's SMTP listener
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail scores an email and returns the verdict
func (f *PostfixFilter) ProcessEmail(ctx context.Context, email core.Email) (*core.Verdict, error) {
	return f.holder.Current().Analyze(email)
}

// handleMessage scores one inbound message, stamps verdict headers and
// relays the result. A CRITICAL verdict is rejected at SMTP time when
// blocking is enabled.
func (f *PostfixFilter) handleMessage(sender string, recipients []string, data []byte) error {
	email, err := ingest.ParseMessage(bytes.NewReader(data), time.Now())
	if err != nil {
		f.logger.Error("Failed to parse inbound message", zap.Error(err))
		// Pass unparseable mail through unscored rather than bouncing it
		return f.relay(sender, recipients, data)
	}
	if email.From == "" {
		email.From = strings.ToLower(sender)
	}
	if email.To == "" && len(recipients) > 0 {
		email.To = strings.ToLower(recipients[0])
	}

	verdict, err := f.holder.Current().Analyze(email)
	if err != nil {
		f.logger.Error("Failed to analyze message", zap.Error(err),
			zap.String("sender", email.From))
		return f.relay(sender, recipients, data)
	}

	f.logger.Info("Message scored",
		zap.String("sender", email.From),
		zap.Float64("risk_score", verdict.OverallRiskScore),
		zap.String("risk_level", string(verdict.RiskLevel)))

	if f.blockCritical && verdict.RiskLevel == core.RiskCritical {
		f.logger.Warn("Blocking critical-risk message",
			zap.String("sender", email.From),
			zap.Strings("risk_factors", verdict.RiskFactors))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "Message rejected: high business email compromise risk",
		}
	}

	stamped := f.stampHeaders(data, verdict)
	return f.relay(sender, recipients, stamped)
}

// stampHeaders prepends the verdict headers to the raw message.
func (f *PostfixFilter) stampHeaders(data []byte, verdict *core.Verdict) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s: %s\r\n", f.levelHeader, verdict.RiskLevel)
	fmt.Fprintf(&buf, "%s: %.3f\r\n", f.scoreHeader, verdict.OverallRiskScore)
	if len(verdict.RiskFactors) > 0 {
		fmt.Fprintf(&buf, "%s: %s\r\n", f.factorsHeader, strings.Join(verdict.RiskFactors, "; "))
	}
	buf.Write(data)
	return buf.Bytes()
}

// relay sends the processed message back to Postfix on the re-injection
// port, or drops it on the floor in standalone mode.
func (f *PostfixFilter) relay(sender string, recipients []string, data []byte) error {
	if !f.postfixEnabled {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", f.postfixAddr, f.postfixPort)
	if err := smtp.SendMail(addr, nil, sender, recipients, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to relay message to postfix: %w", err)
	}
	return nil
}

type smtpBackend struct {
	filter *PostfixFilter
}

func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return s.filter.handleMessage(s.sender, s.recipients, data)
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Logout() error {
	return nil
}
