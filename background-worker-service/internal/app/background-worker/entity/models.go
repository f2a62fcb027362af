package entity

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Источник запуска сверки
const (
	TriggerStartup = "startup"
	TriggerCron    = "cron"
	TriggerEvent   = "event"
)

const (
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

const EventTypeUpvoteToggled = "UPVOTE_TOGGLED"

// ReconcileRun - запись журнала сверки счетчиков голосов
type ReconcileRun struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Trigger   string    `json:"trigger" gorm:"type:varchar(20);not null;index"`
	ProductID string    `json:"product_id,omitempty" gorm:"type:varchar(24)"` // пусто для полной сверки
	Checked   int64     `json:"checked" gorm:"not null"`
	Drifted   int64     `json:"drifted" gorm:"not null"`
	Corrected int64     `json:"corrected" gorm:"not null"` // сумма |ledger - counter| по исправленным продуктам
	Status    string    `json:"status" gorm:"type:varchar(20);not null"`
	Error     string    `json:"error,omitempty" gorm:"type:text"`
	StartedAt time.Time `json:"started_at" gorm:"not null;index"`
	// FinishedAt заполняется в конце запуска
	FinishedAt time.Time `json:"finished_at" gorm:"not null"`
}

func (ReconcileRun) TableName() string {
	return "reconcile_runs"
}

// CounterDrift - продукт, у которого upvote_count разошелся с реестром голосов
type CounterDrift struct {
	ProductID primitive.ObjectID `bson:"_id"`
	Stored    int64              `bson:"upvote_count"`
	Actual    int64              `bson:"actual"`
}

// Delta возвращает модуль расхождения
func (d CounterDrift) Delta() int64 {
	if d.Actual > d.Stored {
		return d.Actual - d.Stored
	}
	return d.Stored - d.Actual
}

// ProductEvent - событие из топика product_events. Воркеру нужны только эти поля
type ProductEvent struct {
	EventType string    `json:"event_type"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id,omitempty"`
	IsUpvoted *bool     `json:"is_upvoted,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
