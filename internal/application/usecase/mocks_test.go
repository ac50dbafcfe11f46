package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/event"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
)

// --- Mock implementations ---

type mockEvaluationRepository struct {
	mu                  sync.Mutex
	saveFunc            func(ctx context.Context, e model.CreditEvaluation) error
	findByIDFunc        func(ctx context.Context, id string) (model.CreditEvaluation, error)
	findByApplicantFunc func(ctx context.Context, ref string, limit int) ([]model.CreditEvaluation, error)
	saved               []model.CreditEvaluation
	findCalls           int
}

func (m *mockEvaluationRepository) Save(ctx context.Context, e model.CreditEvaluation) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, e)
	return nil
}

func (m *mockEvaluationRepository) FindByID(ctx context.Context, id string) (model.CreditEvaluation, error) {
	m.findCalls++
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return model.CreditEvaluation{}, model.ErrEvaluationNotFound
}

func (m *mockEvaluationRepository) FindByApplicant(ctx context.Context, ref string, limit int) ([]model.CreditEvaluation, error) {
	if m.findByApplicantFunc != nil {
		return m.findByApplicantFunc(ctx, ref, limit)
	}
	return nil, nil
}

type mockEventPublisher struct {
	publishFunc     func(ctx context.Context, events ...event.DomainEvent) error
	publishedEvents []event.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...event.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

type mockEvaluationCache struct {
	entries map[string][]byte
	getErr  error
	sets    int
}

func newMockCache() *mockEvaluationCache {
	return &mockEvaluationCache{entries: map[string][]byte{}}
}

func (m *mockEvaluationCache) Get(_ context.Context, id string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.entries[id]
	if !ok {
		return nil, port.ErrCacheMiss
	}
	return v, nil
}

func (m *mockEvaluationCache) Set(_ context.Context, id string, payload []byte) error {
	m.sets++
	m.entries[id] = payload
	return nil
}

type recordedEvaluation struct {
	decision    string
	creditScore int
	fallback    bool
}

type mockMetrics struct {
	mu       sync.Mutex
	recorded []recordedEvaluation
}

func (m *mockMetrics) RecordEvaluation(_ context.Context, decision string, creditScore int, fallback bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, recordedEvaluation{decision, creditScore, fallback})
}

type mockWorkbook struct {
	readFunc  func(data []byte, sheet string) ([]map[string]any, error)
	writeFunc func(rows []port.ReportRow) ([]byte, error)
	written   []port.ReportRow
}

func (m *mockWorkbook) ReadApplicants(data []byte, sheet string) ([]map[string]any, error) {
	if m.readFunc != nil {
		return m.readFunc(data, sheet)
	}
	return nil, nil
}

func (m *mockWorkbook) WriteReport(rows []port.ReportRow) ([]byte, error) {
	m.written = rows
	if m.writeFunc != nil {
		return m.writeFunc(rows)
	}
	return []byte("report"), nil
}

type mockReportStore struct {
	uploadFunc func(ctx context.Context, name string, data []byte) (string, error)
	uploaded   map[string][]byte
	lastTTL    time.Duration
}

func (m *mockReportStore) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, name, data)
	}
	if m.uploaded == nil {
		m.uploaded = map[string][]byte{}
	}
	key := "reports/" + name
	m.uploaded[key] = data
	return key, nil
}

func (m *mockReportStore) PresignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	m.lastTTL = ttl
	return "https://storage.local/" + key, nil
}

func referenceProfile() map[string]any {
	return map[string]any{
		"applicantReference": "app-001",
		"loanType":           "Personal Loan",
		"income":             5000,
		"expenses":           1500,
		"debt":               300,
		"loanRequest":        10000,
		"tenure":             36,
		"paymentHistory":     "On-time",
		"usedCredit":         1000,
		"creditLimit":        5000,
		"employmentStatus":   "Full-time",
		"monthsEmployed":     24,
		"totalAssets":        2000,
		"bankAccounts":       2,
		"debtTypes":          []string{"Credit Card"},
	}
}
