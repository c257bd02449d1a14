package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/leadflow-api/internal/application/ports"
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

const stepNdaDocument = "nda_document"

// IssueNda emite una nueva versión de NDA y actualiza opportunity.nda_status.
// Se rechaza si otro NDA de la oportunidad sigue en curso. El PDF se genera
// después de confirmar la emisión; si falla se devuelve un aviso.
func (s *Service) IssueNda(ctx context.Context, actor entity.Actor, opportunityID string) (*entity.Nda, Outcome, error) {
	var (
		nda *entity.Nda
		opp *entity.Opportunity
	)
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		var err error
		opp, err = s.openOpportunity(ctx, r, opportunityID)
		if err != nil {
			return err
		}
		existing, err := r.Ndas.ListByOpportunity(ctx, opportunityID)
		if err != nil {
			return storageErr(err, "list", "nda", "")
		}
		versions := make([]int, 0, len(existing))
		for _, n := range existing {
			if n.Status.Pending() {
				return domain.NewValidationError(domain.CodeNdaPending,
					"el NDA v%d de la oportunidad sigue en curso (%s)", n.Version, n.Status)
			}
			versions = append(versions, n.Version)
		}
		if err := lifecycle.CheckNda(entity.NdaNotIssued, entity.NdaIssued); err != nil {
			return err
		}

		now := s.now()
		nda = &entity.Nda{
			ID:            newID(),
			OpportunityID: opportunityID,
			Version:       lifecycle.NextVersion(versions),
			Status:        entity.NdaIssued,
			IssuedBy:      actor.UserID,
			IssuedAt:      &now,
			RowVersion:    1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := r.Ndas.Create(ctx, nda); err != nil {
			return storageErr(err, "create", "nda", nda.ID)
		}
		opp.NdaStatus = entity.NdaIssued
		if err := s.saveOpportunity(ctx, r, opp, "nda_status"); err != nil {
			return err
		}
		return s.audit(ctx, r, actor, entity.RelatedNda, nda.ID, "issue", string(entity.NdaNotIssued), string(entity.NdaIssued),
			fmt.Sprintf("v%d", nda.Version))
	})
	if err != nil {
		return nil, Outcome{}, err
	}
	s.log.Info().Str("opportunity_id", opportunityID).Int("version", nda.Version).Msg("NDA emitido")

	var out Outcome
	if s.renderer != nil && s.docs != nil {
		ndaID := nda.ID
		if err := s.attachNdaPDF(ctx, ndaID); err != nil {
			warn := domain.PartialApplication{Step: stepNdaDocument, Entity: "nda", ID: ndaID, Err: err}
			out.Warnings = append(out.Warnings, warn)
			s.log.Warn().Err(err).Str("nda_id", ndaID).Msg("PDF del NDA no generado")
			if s.reconciler != nil {
				s.reconciler.Enqueue(Step{Name: stepNdaDocument, Entity: "nda", ID: ndaID,
					Run: func(ctx context.Context) error { return s.attachNdaPDF(ctx, ndaID) }}, err)
			}
		} else if fresh, err := s.repos.Ndas.GetByID(ctx, ndaID); err == nil && fresh != nil {
			nda = fresh
		}
	}
	return nda, out, nil
}

// attachNdaPDF genera el PDF, lo sube y enlaza nda.document_id. Es idempotente:
// la ruta es determinista y un documento existente se sobrescribe como nueva versión.
func (s *Service) attachNdaPDF(ctx context.Context, ndaID string) error {
	nda, err := s.repos.Ndas.GetByID(ctx, ndaID)
	if err != nil {
		return storageErr(err, "get", "nda", ndaID)
	}
	if nda == nil {
		return notFound("nda", ndaID)
	}
	if nda.DocumentID != "" {
		return nil
	}
	opp, err := s.loadOpportunity(ctx, s.repos, nda.OpportunityID)
	if err != nil {
		return err
	}
	var leadEmail string
	if l, err := s.repos.Leads.GetByID(ctx, opp.LeadID); err == nil && l != nil {
		leadEmail = l.Email
	}
	issuedAt := nda.CreatedAt
	if nda.IssuedAt != nil {
		issuedAt = *nda.IssuedAt
	}
	pdf, err := s.renderer.RenderNda(ports.NdaDocument{
		OpportunityID: opp.ID,
		LeadName:      opp.LeadName,
		LeadEmail:     leadEmail,
		Version:       nda.Version,
		IssuedBy:      nda.IssuedBy,
		IssuedAt:      issuedAt,
	})
	if err != nil {
		return fmt.Errorf("render NDA: %w", err)
	}
	path := fmt.Sprintf("nda/%s/v%d/nda.pdf", opp.ID, nda.Version)
	if err := s.docs.Upload(ctx, path, pdf, "application/pdf"); err != nil {
		return &domain.StorageError{Op: "upload", Entity: "document", ID: path, Err: err}
	}

	return s.tx.Run(ctx, func(r repository.Repositories) error {
		n, err := r.Ndas.GetByID(ctx, ndaID)
		if err != nil {
			return storageErr(err, "get", "nda", ndaID)
		}
		if n == nil {
			return notFound("nda", ndaID)
		}
		now := s.now()
		name := fmt.Sprintf("nda-v%d.pdf", n.Version)
		doc, err := r.Documents.FindByName(ctx, entity.RelatedNda, ndaID, name)
		if err != nil {
			return storageErr(err, "get", "document", "")
		}
		if doc == nil {
			doc = &entity.Document{
				ID: newID(), EntityType: entity.RelatedNda, EntityID: ndaID, Name: name,
				ContentType: "application/pdf", Path: path, SizeBytes: int64(len(pdf)), Version: 1,
				UploadedBy: n.IssuedBy, RowVersion: 1, CreatedAt: now, UpdatedAt: now,
			}
			if err := r.Documents.Create(ctx, doc); err != nil {
				return storageErr(err, "create", "document", doc.ID)
			}
		}
		n.DocumentID = doc.ID
		n.UpdatedAt = now
		return storageErr(r.Ndas.Update(ctx, n), "update", "nda", ndaID, "document_id")
	})
}

// advanceNda mueve el NDA un paso, sella el timestamp y refleja el estado en la oportunidad.
func (s *Service) advanceNda(ctx context.Context, actor entity.Actor, ndaID string, to entity.NdaStatus,
	stamp func(n *entity.Nda, t time.Time), action string) (*entity.Nda, error) {
	var out *entity.Nda
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		n, err := r.Ndas.GetByID(ctx, ndaID)
		if err != nil {
			return storageErr(err, "get", "nda", ndaID)
		}
		if n == nil {
			return notFound("nda", ndaID)
		}
		if err := lifecycle.CheckNda(n.Status, to); err != nil {
			return err
		}
		opp, err := s.loadOpportunity(ctx, r, n.OpportunityID)
		if err != nil {
			return err
		}

		from := n.Status
		now := s.now()
		n.Status = to
		stamp(n, now)
		n.UpdatedAt = now
		if err := r.Ndas.Update(ctx, n); err != nil {
			return storageErr(err, "update", "nda", ndaID, "status")
		}
		opp.NdaStatus = to
		if err := s.saveOpportunity(ctx, r, opp, "nda_status"); err != nil {
			return err
		}
		if err := s.audit(ctx, r, actor, entity.RelatedNda, ndaID, action, string(from), string(to), ""); err != nil {
			return err
		}
		out = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNdaSigned issued → signed_by_investor.
func (s *Service) MarkNdaSigned(ctx context.Context, actor entity.Actor, ndaID string) (*entity.Nda, error) {
	return s.advanceNda(ctx, actor, ndaID, entity.NdaSignedByInvestor,
		func(n *entity.Nda, t time.Time) { n.SignedAt = &t }, "sign")
}

// MarkNdaCounterSigned signed_by_investor → counter_signed.
func (s *Service) MarkNdaCounterSigned(ctx context.Context, actor entity.Actor, ndaID string) (*entity.Nda, error) {
	return s.advanceNda(ctx, actor, ndaID, entity.NdaCounterSigned,
		func(n *entity.Nda, t time.Time) { n.CountersignedAt = &t }, "countersign")
}

// MarkNdaCompleted counter_signed → completed.
func (s *Service) MarkNdaCompleted(ctx context.Context, actor entity.Actor, ndaID string) (*entity.Nda, error) {
	return s.advanceNda(ctx, actor, ndaID, entity.NdaCompleted,
		func(n *entity.Nda, t time.Time) { n.CompletedAt = &t }, "complete")
}

// AttachNdaDocument enlaza un documento subido (p. ej. la copia firmada) al NDA.
func (s *Service) AttachNdaDocument(ctx context.Context, actor entity.Actor, ndaID, documentID string) (*entity.Nda, error) {
	var out *entity.Nda
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		n, err := r.Ndas.GetByID(ctx, ndaID)
		if err != nil {
			return storageErr(err, "get", "nda", ndaID)
		}
		if n == nil {
			return notFound("nda", ndaID)
		}
		if err := s.requireDocument(ctx, r, documentID); err != nil {
			return err
		}
		n.DocumentID = documentID
		n.UpdatedAt = s.now()
		if err := r.Ndas.Update(ctx, n); err != nil {
			return storageErr(err, "update", "nda", ndaID, "document_id")
		}
		if err := s.audit(ctx, r, actor, entity.RelatedNda, ndaID, "attach_document", string(n.Status), string(n.Status), documentID); err != nil {
			return err
		}
		out = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListNdas versiones de NDA de la oportunidad.
func (s *Service) ListNdas(ctx context.Context, opportunityID string) ([]*entity.Nda, error) {
	list, err := s.repos.Ndas.ListByOpportunity(ctx, opportunityID)
	return list, storageErr(err, "list", "nda", "")
}

func (s *Service) requireDocument(ctx context.Context, r repository.Repositories, documentID string) error {
	if documentID == "" {
		return domain.NewValidationError(domain.CodeValidation, "document_id es requerido")
	}
	d, err := r.Documents.GetByID(ctx, documentID)
	if err != nil {
		return storageErr(err, "get", "document", documentID)
	}
	if d == nil {
		return domain.NewValidationError(domain.CodeValidation, "el documento %s no existe", documentID)
	}
	return nil
}
