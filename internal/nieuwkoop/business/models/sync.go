package models

import (
	"time"

	"github.com/google/uuid"
)

const CheckpointKey = "nieuwkoop_last_sync"

type SyncType string

const (
	SyncTypeScheduled SyncType = "scheduled"
	SyncTypeManual    SyncType = "manual"
	SyncTypeFull      SyncType = "full"
	SyncTypeChanges   SyncType = "changes"
	SyncTypeError     SyncType = "error"
)

type SyncStatus string

const (
	SyncStatusSuccess    SyncStatus = "success"
	SyncStatusPartial    SyncStatus = "partial"
	SyncStatusError      SyncStatus = "error"
	SyncStatusInProgress SyncStatus = "in_progress"
)

func (s SyncStatus) Terminal() bool {
	return s == SyncStatusSuccess || s == SyncStatusPartial || s == SyncStatusError
}

type SyncCheckpoint struct {
	Key       string     `json:"key"`
	LastSync  time.Time  `json:"lastSync"`
	Status    SyncStatus `json:"status"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type SyncLogEntry struct {
	ID                uuid.UUID       `json:"id"`
	Type              SyncType        `json:"type"`
	Status            SyncStatus      `json:"status"`
	ProductsProcessed int             `json:"productsProcessed"`
	ErrorsCount       int             `json:"errorsCount"`
	Metadata          SyncLogMetadata `json:"metadata"`
	CreatedAt         time.Time       `json:"createdAt"`
	FinishedAt        *time.Time      `json:"finishedAt,omitempty"`
}

type SyncLogMetadata struct {
	Mode            string        `json:"mode,omitempty"`
	Since           *time.Time    `json:"since,omitempty"`
	NewProducts     int           `json:"newProducts"`
	UpdatedProducts int           `json:"updatedProducts"`
	ErrorSamples    []RecordError `json:"errorSamples,omitempty"`
	Failure         string        `json:"failure,omitempty"`
	DurationMs      int64         `json:"durationMs,omitempty"`
}

type RecordError struct {
	SKU   string `json:"sku"`
	Error string `json:"error"`
}
