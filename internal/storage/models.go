package storage

import (
	"encoding/json"
	"time"

	"github.com/liamashdown/resolvewatch/internal/market"
	"gorm.io/gorm"
)

// ResolutionAudit mirrors a persisted resolution record
type ResolutionAudit struct {
	RecordID         string  `gorm:"primaryKey;size:191"`
	MarketID         string  `gorm:"size:191;not null;index"`
	Outcome          string  `gorm:"size:16;not null;index"`
	Confidence       float64 `gorm:"type:decimal(6,5);not null"`
	Reasoning        string  `gorm:"type:text;not null"`
	SourcesJSON      string  `gorm:"type:text;not null"`
	ModelUsed        string  `gorm:"size:255;not null"`
	ProcessingTimeMs int64   `gorm:"not null"`
	PromptTokens     *int64
	CompletionTokens *int64
	ResolvedTS       int64 `gorm:"not null;index"`
	CreatedTS        int64 `gorm:"not null"`
}

func (ResolutionAudit) TableName() string {
	return "resolution_audit"
}

// BeforeCreate hook for timestamps
func (a *ResolutionAudit) BeforeCreate(tx *gorm.DB) error {
	if a.CreatedTS == 0 {
		a.CreatedTS = time.Now().Unix()
	}
	return nil
}

// ResolutionFailure records one failed resolution attempt
type ResolutionFailure struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	MarketID  string `gorm:"size:191;not null;index"`
	Error     string `gorm:"type:text;not null"`
	FailedTS  int64  `gorm:"not null;index"`
	CreatedTS int64  `gorm:"not null"`
}

func (ResolutionFailure) TableName() string {
	return "resolution_failures"
}

func (f *ResolutionFailure) BeforeCreate(tx *gorm.DB) error {
	if f.CreatedTS == 0 {
		f.CreatedTS = time.Now().Unix()
	}
	return nil
}

// NewResolutionAudit converts a record into its audit row
func NewResolutionAudit(rec market.Record) (*ResolutionAudit, error) {
	sources := rec.Sources
	if sources == nil {
		sources = []market.Source{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return nil, err
	}

	return &ResolutionAudit{
		RecordID:         rec.ID,
		MarketID:         rec.MarketID,
		Outcome:          string(rec.Outcome),
		Confidence:       rec.Confidence,
		Reasoning:        rec.Reasoning,
		SourcesJSON:      string(sourcesJSON),
		ModelUsed:        rec.ModelUsed,
		ProcessingTimeMs: rec.ProcessingTimeMs,
		PromptTokens:     rec.PromptTokens,
		CompletionTokens: rec.CompletionTokens,
		ResolvedTS:       rec.ResolvedAt.Unix(),
	}, nil
}
