package repository

// Repositories agrupa los puertos de una misma unidad de trabajo (pool o transacción).
type Repositories struct {
	Leads         LeadRepository
	Opportunities OpportunityRepository
	Ndas          NdaRepository
	BusinessPlans BusinessPlanRepository
	Checklists    ChecklistRepository
	Tasks         TaskRepository
	Notifications NotificationRepository
	Meetings      MeetingRepository
	Comments      CommentRepository
	Documents     DocumentRepository
	Approvals     ApprovalRepository
	Audit         AuditRepository
	Messages      InboundMessageRepository
	Users         UserRepository
}
