package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"project_amharicAI/internal/interfaces"
)

// Stores bundles one implementation of every store port.
type Stores struct {
	Companies     interfaces.CompanyStore
	Documents     interfaces.DocumentStore
	Conversations interfaces.ConversationStore
	Workflows     interfaces.WorkflowStore
	Widgets       interfaces.WidgetStore
	Dashboard     interfaces.DashboardStore
}

func NewPostgresStores(db *pgxpool.Pool) *Stores {
	return &Stores{
		Companies:     NewCompanyRepository(db),
		Documents:     NewDocumentRepository(db),
		Conversations: NewConversationRepository(db),
		Workflows:     NewWorkflowRepository(db),
		Widgets:       NewWidgetRepository(db),
		Dashboard:     NewDashboardRepository(db),
	}
}

func NewMemoryStores() *Stores {
	return NewMemoryStore().Stores()
}

func (s *MemoryStore) Stores() *Stores {
	return &Stores{
		Companies:     s.Companies(),
		Documents:     s.Documents(),
		Conversations: s.Conversations(),
		Workflows:     s.Workflows(),
		Widgets:       s.Widgets(),
		Dashboard:     s.Dashboard(),
	}
}
