package impl_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/config"
	"atrium/internal/domain/entity"
	"atrium/internal/domain/repository"
	"atrium/internal/mocks"
	"atrium/internal/usecase"
	"atrium/internal/usecase/impl"
)

func newAuditFixture(repo *mocks.MockAuditRepository) usecase.AuditUsecase {
	return impl.NewAuditService(impl.AuditServiceParams{
		AuditRepo: repo,
		Config: &config.Config{
			Audit: config.AuditConfig{Retention: 90 * 24 * time.Hour},
		},
		Logger: testLogger(),
	})
}

func TestAuditRecord_SwallowsRepositoryErrors(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	repo.CreateFunc = func(_ context.Context, _ *entity.AuditEntry) error {
		return errors.New("db down")
	}
	svc := newAuditFixture(repo)

	// Must not panic or surface the error.
	svc.Record(context.Background(), usecase.AuditRecordInput{
		TenantID: uuid.New(),
		Action:   entity.AuditActionLogin,
	})
}

func TestAuditRecord_MapsInput(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	svc := newAuditFixture(repo)

	tenantID := uuid.New()
	actorID := uuid.New()
	svc.Record(context.Background(), usecase.AuditRecordInput{
		TenantID:   tenantID,
		ActorID:    &actorID,
		Action:     entity.AuditActionPasswordChange,
		EntityType: "account",
		EntityID:   &actorID,
		After:      map[string]any{"field": "value"},
		Client:     usecase.ClientInfo{IPAddress: "203.0.113.1", UserAgent: "cli"},
	})

	require.Len(t, repo.Created, 1)
	entry := repo.Created[0]
	assert.Equal(t, tenantID, entry.TenantID)
	assert.Equal(t, &actorID, entry.ActorID)
	assert.Equal(t, entity.AuditActionPasswordChange, entry.Action)
	assert.Equal(t, "203.0.113.1", entry.IPAddress)
}

func TestAuditList_NormalizesPage(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	svc := newAuditFixture(repo)

	out, err := svc.List(context.Background(), repository.AuditFilter{Page: 0, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Page)
}

func TestAuditExport(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	svc := newAuditFixture(repo)

	for i := 0; i < 3; i++ {
		svc.Record(context.Background(), usecase.AuditRecordInput{
			TenantID: uuid.New(),
			Action:   entity.AuditActionLogin,
		})
	}

	t.Run("json", func(t *testing.T) {
		data, contentType, err := svc.Export(context.Background(), repository.AuditFilter{}, usecase.AuditExportJSON)
		require.NoError(t, err)
		assert.Equal(t, "application/json", contentType)

		var views []map[string]any
		require.NoError(t, json.Unmarshal(data, &views))
		assert.Len(t, views, 3)
	})

	t.Run("csv", func(t *testing.T) {
		data, contentType, err := svc.Export(context.Background(), repository.AuditFilter{}, usecase.AuditExportCSV)
		require.NoError(t, err)
		assert.Equal(t, "text/csv", contentType)

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 4) // header + 3 rows
		assert.Equal(t, "id", records[0][0])
		assert.Equal(t, entity.AuditActionLogin, records[1][3])
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, _, err := svc.Export(context.Background(), repository.AuditFilter{}, "xml")
		assert.Error(t, err)
	})
}

func TestAuditPrune(t *testing.T) {
	repo := mocks.NewMockAuditRepository()
	var cutoff time.Time
	repo.DeleteOlderThanFunc = func(_ context.Context, c time.Time) (int, error) {
		cutoff = c

		return 12, nil
	}
	svc := newAuditFixture(repo)

	deleted, err := svc.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, deleted)
	assert.WithinDuration(t, time.Now().Add(-90*24*time.Hour), cutoff, time.Minute)
}
