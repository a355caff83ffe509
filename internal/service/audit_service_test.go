package service

import (
	"errors"
	"testing"

	"lawguide-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuditRepo struct {
	mock.Mock
}

func (m *mockAuditRepo) Create(record *model.ActionRecord) error {
	return m.Called(record).Error(0)
}

func (m *mockAuditRepo) FindBySession(sessionID string, limit int) ([]model.ActionRecord, error) {
	args := m.Called(sessionID, limit)
	records, _ := args.Get(0).([]model.ActionRecord)
	return records, args.Error(1)
}

func TestAuditHistoryClampsLimit(t *testing.T) {
	repo := &mockAuditRepo{}
	repo.On("FindBySession", "s1", maxHistory).Return([]model.ActionRecord{{SessionID: "s1", Version: 2}}, nil).Twice()
	svc := NewAuditService(repo)

	records, err := svc.History("s1", 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = svc.History("s1", maxHistory*10)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAuditHistoryEmptyAndError(t *testing.T) {
	repo := &mockAuditRepo{}
	repo.On("FindBySession", "empty", 10).Return(nil, nil).Once()
	repo.On("FindBySession", "broken", 10).Return(nil, errors.New("db down")).Once()
	svc := NewAuditService(repo)

	records, err := svc.History("empty", 10)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	_, err = svc.History("broken", 10)
	assert.Error(t, err)
}
