// Package emailbridge convierte correos entrantes en candidatos a lead. Nada
// se crea ni se enlaza sin confirmación explícita del usuario.
package emailbridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/leadflow-api/internal/application/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/application/ports"
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
	"github.com/jhoicas/leadflow-api/pkg/textfold"
)

// defaultLookback ventana de la primera sincronización.
const defaultLookback = 30 * 24 * time.Hour

// publicDomains dominios de correo personal: no identifican a una empresa.
var publicDomains = map[string]bool{
	"gmail.com": true, "googlemail.com": true, "outlook.com": true, "hotmail.com": true,
	"live.com": true, "msn.com": true, "yahoo.com": true, "yahoo.es": true, "icloud.com": true,
	"me.com": true, "aol.com": true, "protonmail.com": true, "proton.me": true,
}

// LeadCreator alta de leads con el gate de core investor.
type LeadCreator interface {
	CreateLead(ctx context.Context, actor entity.Actor, in lifecycle.CreateLeadInput) (*entity.Lead, error)
}

// SyncResult conteos de una sincronización.
type SyncResult struct {
	Fetched int `json:"fetched"`
	Created int `json:"created"`
}

// UseCase puente de correo entrante.
type UseCase struct {
	repos   repository.Repositories
	source  ports.MailSource
	creator LeadCreator
	log     zerolog.Logger
	now     func() time.Time
}

// NewUseCase source puede ser nil: SyncInbox queda deshabilitado.
func NewUseCase(repos repository.Repositories, source ports.MailSource, creator LeadCreator, log zerolog.Logger, now func() time.Time) *UseCase {
	if now == nil {
		now = time.Now
	}
	return &UseCase{repos: repos, source: source, creator: creator, log: log.With().Str("component", "emailbridge").Logger(), now: now}
}

// SyncInbox trae los correos posteriores al último almacenado y los inserta
// deduplicando por (provider, external_id).
func (uc *UseCase) SyncInbox(ctx context.Context) (SyncResult, error) {
	var res SyncResult
	if uc.source == nil {
		return res, domain.NewValidationError(domain.CodeValidation, "la sincronización de correo no está configurada")
	}
	provider := uc.source.Provider()
	latest, err := uc.repos.Messages.LatestReceivedAt(ctx, provider)
	if err != nil {
		return res, &domain.StorageError{Op: "get", Entity: "inbound_message", Err: err}
	}
	since := uc.now().Add(-defaultLookback)
	if latest != nil {
		since = *latest
	}

	msgs, err := uc.source.Fetch(ctx, since)
	if err != nil {
		return res, fmt.Errorf("fetch %s: %w", provider, err)
	}
	res.Fetched = len(msgs)
	for _, m := range msgs {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = uc.now()
		}
		m.Provider = provider
		created, err := uc.repos.Messages.Upsert(ctx, m)
		if err != nil {
			return res, &domain.StorageError{Op: "upsert", Entity: "inbound_message", ID: m.ExternalID, Err: err}
		}
		if created {
			res.Created++
		}
	}
	uc.log.Info().Str("provider", string(provider)).Int("fetched", res.Fetched).Int("created", res.Created).Msg("buzón sincronizado")
	return res, nil
}

// ListMessages correos sincronizados, más recientes primero.
func (uc *UseCase) ListMessages(ctx context.Context, f repository.MessageFilter) ([]*entity.InboundMessage, error) {
	list, err := uc.repos.Messages.List(ctx, f)
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Entity: "inbound_message", Err: err}
	}
	return list, nil
}

func (uc *UseCase) message(ctx context.Context, id string) (*entity.InboundMessage, error) {
	m, err := uc.repos.Messages.GetByID(ctx, id)
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Entity: "inbound_message", ID: id, Err: err}
	}
	if m == nil {
		return nil, fmt.Errorf("inbound_message %s: %w", id, domain.ErrNotFound)
	}
	return m, nil
}

// MarkAsEnquiry marca el correo como consulta comercial.
func (uc *UseCase) MarkAsEnquiry(ctx context.Context, id string) (*entity.InboundMessage, error) {
	m, err := uc.message(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.IsEnquiry {
		return m, nil
	}
	m.IsEnquiry = true
	if err := uc.repos.Messages.Update(ctx, m); err != nil {
		return nil, &domain.StorageError{Op: "update", Entity: "inbound_message", ID: id, Fields: []string{"is_enquiry"}, Err: err}
	}
	return m, nil
}

// senderDomain dominio del remitente en minúsculas, o "" si no hay.
func senderDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}

// domainLabel primera etiqueta del dominio corporativo: "acmefarms.com" → "acmefarms".
func domainLabel(domainName string) string {
	if domainName == "" || publicDomains[domainName] {
		return ""
	}
	label, _, _ := strings.Cut(domainName, ".")
	if len(label) < 3 {
		return ""
	}
	return label
}

func firstName(senderName string) string {
	fields := strings.Fields(senderName)
	if len(fields) == 0 || len([]rune(fields[0])) < 3 {
		return ""
	}
	return fields[0]
}

// MatchLeads filtra leads que coinciden con el remitente por dominio corporativo
// (contra el nombre y el correo del lead) o por nombre de pila (contra el nombre).
func MatchLeads(m *entity.InboundMessage, leads []*entity.Lead) []*entity.Lead {
	dom := senderDomain(m.SenderEmail)
	label := domainLabel(dom)
	first := firstName(m.SenderName)
	if label == "" && first == "" {
		return nil
	}
	var out []*entity.Lead
	for _, l := range leads {
		switch {
		case label != "" && textfold.Contains(l.Name, label):
		case label != "" && senderDomain(l.Email) == dom:
		case first != "" && textfold.Contains(l.Name, first):
		default:
			continue
		}
		out = append(out, l)
	}
	return out
}

// FindMatchingLeads leads candidatos para el correo.
func (uc *UseCase) FindMatchingLeads(ctx context.Context, id string) ([]*entity.Lead, error) {
	m, err := uc.message(ctx, id)
	if err != nil {
		return nil, err
	}
	leads, err := uc.repos.Leads.List(ctx, repository.LeadFilter{})
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Entity: "lead", Err: err}
	}
	return MatchLeads(m, leads), nil
}

// LinkToLead enlaza el correo a un lead existente.
func (uc *UseCase) LinkToLead(ctx context.Context, id, leadID string) (*entity.InboundMessage, error) {
	m, err := uc.message(ctx, id)
	if err != nil {
		return nil, err
	}
	l, err := uc.repos.Leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Entity: "lead", ID: leadID, Err: err}
	}
	if l == nil {
		return nil, domain.NewValidationError(domain.CodeValidation, "lead %s no existe", leadID)
	}
	m.LinkedLeadID = leadID
	if err := uc.repos.Messages.Update(ctx, m); err != nil {
		return nil, &domain.StorageError{Op: "update", Entity: "inbound_message", ID: id, Fields: []string{"linked_lead_id"}, Err: err}
	}
	uc.log.Info().Str("message_id", id).Str("lead_id", leadID).Msg("correo enlazado a lead")
	return m, nil
}

// LeadDraftFromMessage datos sugeridos para crear un lead desde el correo.
func (uc *UseCase) LeadDraftFromMessage(ctx context.Context, id string) (lifecycle.CreateLeadInput, error) {
	m, err := uc.message(ctx, id)
	if err != nil {
		return lifecycle.CreateLeadInput{}, err
	}
	return Draft(m), nil
}

// Draft prellena un alta de lead a partir del remitente.
func Draft(m *entity.InboundMessage) lifecycle.CreateLeadInput {
	name := strings.TrimSpace(m.SenderName)
	if name == "" {
		name, _, _ = strings.Cut(m.SenderEmail, "@")
	}
	inquiry := entity.InquiryIndividual
	if domainLabel(senderDomain(m.SenderEmail)) != "" {
		inquiry = entity.InquiryCompany
	}
	source := m.Provider
	if !source.Valid() {
		source = entity.SourceOther
	}
	var notes string
	if m.Subject != "" {
		notes = "Asunto: " + m.Subject
	}
	return lifecycle.CreateLeadInput{
		Name:        name,
		InquiryType: inquiry,
		Priority:    entity.PriorityMedium,
		Source:      source,
		Email:       m.SenderEmail,
		Notes:       notes,
	}
}

// ConfirmLeadFromMessage crea el lead con los datos confirmados por el usuario
// (pasa por el gate normal de alta) y enlaza el correo.
func (uc *UseCase) ConfirmLeadFromMessage(ctx context.Context, actor entity.Actor, id string, in lifecycle.CreateLeadInput) (*entity.Lead, error) {
	m, err := uc.message(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.LinkedLeadID != "" {
		return nil, domain.NewValidationError(domain.CodeValidation, "el correo ya está enlazado al lead %s", m.LinkedLeadID)
	}
	if in.Source == "" {
		in.Source = Draft(m).Source
	}
	l, err := uc.creator.CreateLead(ctx, actor, in)
	if err != nil {
		return nil, err
	}
	m.LinkedLeadID = l.ID
	if err := uc.repos.Messages.Update(ctx, m); err != nil {
		return l, &domain.StorageError{Op: "update", Entity: "inbound_message", ID: id, Fields: []string{"linked_lead_id"}, Err: err}
	}
	return l, nil
}
