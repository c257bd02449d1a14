// Package mail implementa ports.MailSource sobre IMAP (Outlook / Gmail).
package mail

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/rs/zerolog"

	"github.com/jhoicas/leadflow-api/internal/application/ports"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

const (
	maxBodyBytes = 16 << 10
	fetchBuffer  = 16
)

// IMAPConfig conexión al buzón.
type IMAPConfig struct {
	Addr     string // host:993, siempre TLS
	Username string
	Password string
	Mailbox  string
	Provider entity.LeadSource
}

// IMAPSource lee correos del buzón en modo solo lectura.
type IMAPSource struct {
	cfg IMAPConfig
	log zerolog.Logger
}

var _ ports.MailSource = (*IMAPSource)(nil)

// NewIMAPSource mailbox vacío usa INBOX; provider vacío usa outlook.
func NewIMAPSource(cfg IMAPConfig, log zerolog.Logger) *IMAPSource {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.Provider == "" {
		cfg.Provider = entity.SourceOutlook
	}
	return &IMAPSource{cfg: cfg, log: log.With().Str("component", "imap").Str("mailbox", cfg.Mailbox).Logger()}
}

// Provider origen reportado en los leads creados desde el correo.
func (s *IMAPSource) Provider() entity.LeadSource { return s.cfg.Provider }

// Fetch trae los mensajes recibidos desde since. IMAP filtra por día, así que
// pueden volver mensajes ya sincronizados; el upsert los deduplica.
func (s *IMAPSource) Fetch(ctx context.Context, since time.Time) ([]*entity.InboundMessage, error) {
	c, err := client.DialTLS(s.cfg.Addr, nil)
	if err != nil {
		return nil, fmt.Errorf("imap: conectar %s: %w", s.cfg.Addr, err)
	}
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Terminate()
		case <-stop:
		}
	}()
	defer func() {
		if err := c.Logout(); err != nil {
			s.log.Debug().Err(err).Msg("logout")
		}
	}()

	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		return nil, fmt.Errorf("imap: login: %w", err)
	}
	if _, err := c.Select(s.cfg.Mailbox, true); err != nil {
		return nil, fmt.Errorf("imap: select %s: %w", s.cfg.Mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap: search: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	section := &imap.BodySectionName{BodyPartName: imap.BodyPartName{Specifier: imap.TextSpecifier}, Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchBodyStructure, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, fetchBuffer)
	done := make(chan error, 1)
	go func() { done <- c.UidFetch(seqset, items, messages) }()

	out := make([]*entity.InboundMessage, 0, len(uids))
	for msg := range messages {
		var body []byte
		if lit := msg.GetBody(section); lit != nil {
			body, _ = io.ReadAll(io.LimitReader(lit, maxBodyBytes))
		}
		m := toInbound(msg, body)
		if m == nil {
			continue
		}
		if m.ReceivedAt.Before(since) {
			continue
		}
		out = append(out, m)
	}
	if err := <-done; err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("imap: fetch: %w", err)
	}
	s.log.Debug().Int("uids", len(uids)).Int("messages", len(out)).Msg("mensajes leídos")
	return out, nil
}

// toInbound mapea el mensaje IMAP. Devuelve nil si no trae envelope.
func toInbound(msg *imap.Message, body []byte) *entity.InboundMessage {
	if msg == nil || msg.Envelope == nil {
		return nil
	}
	env := msg.Envelope
	m := &entity.InboundMessage{
		ExternalID: strings.Trim(env.MessageId, "<>"),
		Subject:    strings.TrimSpace(env.Subject),
		Body:       strings.TrimSpace(string(body)),
		ReceivedAt: env.Date,
	}
	if m.ExternalID == "" {
		m.ExternalID = "uid-" + strconv.FormatUint(uint64(msg.Uid), 10)
	}
	if len(env.From) > 0 && env.From[0] != nil {
		m.SenderName = strings.TrimSpace(env.From[0].PersonalName)
		m.SenderEmail = strings.ToLower(env.From[0].Address())
	}
	if msg.BodyStructure != nil {
		msg.BodyStructure.Walk(func(_ []int, part *imap.BodyStructure) bool {
			if strings.EqualFold(part.Disposition, "attachment") {
				m.HasAttachments = true
				return false
			}
			return true
		})
	}
	return m
}
