package mocks

import (
	"context"

	"atrium/internal/domain/repository"
	"atrium/internal/usecase"
)

// MockAuditUsecase implements usecase.AuditUsecase for testing the services
// that record audit entries. The default Record collects inputs.
type MockAuditUsecase struct {
	RecordFunc func(ctx context.Context, input usecase.AuditRecordInput)
	ListFunc   func(ctx context.Context, filter repository.AuditFilter) (*usecase.AuditListOutput, error)
	ExportFunc func(ctx context.Context, filter repository.AuditFilter, format string) ([]byte, string, error)
	PruneFunc  func(ctx context.Context) (int, error)

	Recorded []usecase.AuditRecordInput
}

// NewMockAuditUsecase creates a MockAuditUsecase with default behaviors.
func NewMockAuditUsecase() *MockAuditUsecase {
	return &MockAuditUsecase{}
}

func (m *MockAuditUsecase) Record(ctx context.Context, input usecase.AuditRecordInput) {
	if m.RecordFunc != nil {
		m.RecordFunc(ctx, input)

		return
	}
	m.Recorded = append(m.Recorded, input)
}

// Actions returns the recorded action tags in order.
func (m *MockAuditUsecase) Actions() []string {
	actions := make([]string, 0, len(m.Recorded))
	for _, input := range m.Recorded {
		actions = append(actions, input.Action)
	}

	return actions
}

func (m *MockAuditUsecase) List(ctx context.Context, filter repository.AuditFilter) (*usecase.AuditListOutput, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}

	return &usecase.AuditListOutput{Page: 1}, nil
}

func (m *MockAuditUsecase) Export(ctx context.Context, filter repository.AuditFilter, format string) ([]byte, string, error) {
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, filter, format)
	}

	return []byte("[]"), "application/json", nil
}

func (m *MockAuditUsecase) Prune(ctx context.Context) (int, error) {
	if m.PruneFunc != nil {
		return m.PruneFunc(ctx)
	}

	return 0, nil
}
