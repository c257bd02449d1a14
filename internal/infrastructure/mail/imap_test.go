package mail

import (
	"context"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

func TestToInbound(t *testing.T) {
	received := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	msg := &imap.Message{
		Uid: 42,
		Envelope: &imap.Envelope{
			Date:      received,
			Subject:   "  Consulta inversión 20 ha ",
			MessageId: "<abc@acme-farms.com>",
			From:      []*imap.Address{{PersonalName: "María Pérez", MailboxName: "Maria", HostName: "Acme-Farms.com"}},
		},
		BodyStructure: &imap.BodyStructure{
			MIMEType: "multipart", MIMESubType: "mixed",
			Parts: []*imap.BodyStructure{
				{MIMEType: "text", MIMESubType: "plain"},
				{MIMEType: "application", MIMESubType: "pdf", Disposition: "attachment"},
			},
		},
	}

	m := toInbound(msg, []byte("Hola, queremos invertir.\r\n"))
	require.NotNil(t, m)
	assert.Equal(t, "abc@acme-farms.com", m.ExternalID)
	assert.Equal(t, "Consulta inversión 20 ha", m.Subject)
	assert.Equal(t, "María Pérez", m.SenderName)
	assert.Equal(t, "maria@acme-farms.com", m.SenderEmail)
	assert.Equal(t, "Hola, queremos invertir.", m.Body)
	assert.Equal(t, received, m.ReceivedAt)
	assert.True(t, m.HasAttachments)
}

func TestToInbound_SinMessageIDUsaUID(t *testing.T) {
	m := toInbound(&imap.Message{Uid: 7, Envelope: &imap.Envelope{}}, nil)
	require.NotNil(t, m)
	assert.Equal(t, "uid-7", m.ExternalID)
	assert.False(t, m.HasAttachments)
	assert.Empty(t, m.SenderEmail)

	assert.Nil(t, toInbound(&imap.Message{Uid: 8}, nil))
}

func TestNewIMAPSource_Defaults(t *testing.T) {
	s := NewIMAPSource(IMAPConfig{Addr: "imap.local:993"}, zerolog.Nop())
	assert.Equal(t, entity.SourceOutlook, s.Provider())
	assert.Equal(t, "INBOX", s.cfg.Mailbox)
}

func TestFetch_ErrorDeConexion(t *testing.T) {
	s := NewIMAPSource(IMAPConfig{Addr: "127.0.0.1:1"}, zerolog.Nop())
	_, err := s.Fetch(context.Background(), time.Now())
	assert.Error(t, err)
}
