// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"kabuka-watcher/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Instruments
	CreateInstrument(ctx context.Context, code int64, name, url string) (*models.Instrument, error)
	GetInstrumentByID(ctx context.Context, id int64) (*models.Instrument, error)
	ListInstruments(ctx context.Context) ([]models.Instrument, error)
	DeleteInstrument(ctx context.Context, id int64) error

	// Alerts
	CreateAlert(ctx context.Context, instrumentID int64, direction models.Direction, amount int64) (*models.AlertRule, error)
	GetAlertByID(ctx context.Context, id int64) (*models.AlertRule, error)
	ListAlerts(ctx context.Context) ([]models.AlertRule, error)
	GetAlertsByInstrumentCode(ctx context.Context, code int64) ([]models.AlertRule, error)
	UpdateAlert(ctx context.Context, id int64, direction models.Direction, amount int64) (*models.AlertRule, error)
	DeleteAlert(ctx context.Context, id int64) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
