package port

import (
	"context"
	"errors"
	"time"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/event"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// EvaluationRepository persists and retrieves credit evaluations.
type EvaluationRepository interface {
	Save(ctx context.Context, evaluation model.CreditEvaluation) error
	// FindByID returns model.ErrEvaluationNotFound when nothing matches.
	FindByID(ctx context.Context, id string) (model.CreditEvaluation, error)
	FindByApplicant(ctx context.Context, applicantReference string, limit int) ([]model.CreditEvaluation, error)
}

// ErrCacheMiss is returned by EvaluationCache.Get for unknown keys.
var ErrCacheMiss = errors.New("cache miss")

// EvaluationCache stores serialized evaluation views.
type EvaluationCache interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Set(ctx context.Context, id string, payload []byte) error
}

// ---------------------------------------------------------------------------
// Event publisher port
// ---------------------------------------------------------------------------

// EventPublisher publishes domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}

// ---------------------------------------------------------------------------
// External service ports
// ---------------------------------------------------------------------------

// PredictionClient calls the external approval predictor.
type PredictionClient interface {
	Predict(ctx context.Context, req model.PredictionRequest) (model.PredictionResponse, error)
}

// ApplicantWorkbook reads applicant rows from, and writes decision reports
// to, spreadsheet files.
type ApplicantWorkbook interface {
	ReadApplicants(data []byte, sheet string) ([]map[string]any, error)
	WriteReport(rows []ReportRow) ([]byte, error)
}

// ReportRow is one line of a batch decision report.
type ReportRow struct {
	Row                int
	ApplicantReference string
	EvaluationID       string
	CreditScore        int
	CreditRating       string
	DTI                string
	EligibilityScore   int
	Decision           string
	ApprovedAmount     string
	InterestRate       string
	EMI                string
	Fallback           bool
	Error              string
}

// ReportStore uploads generated reports to object storage.
type ReportStore interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// EvaluationMetrics records evaluation outcomes.
type EvaluationMetrics interface {
	RecordEvaluation(ctx context.Context, decision string, creditScore int, fallback bool)
}
