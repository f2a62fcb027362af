package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductStatus статус модерации продукта
type ProductStatus string

const (
	StatusPending  ProductStatus = "pending"
	StatusApproved ProductStatus = "approved"
	StatusRejected ProductStatus = "rejected"
)

// IsValid проверяет, что статус входит в допустимый набор
func (s ProductStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Categories - допустимые категории продуктов в порядке отображения
var Categories = []string{
	"AI", "SaaS", "Devtools", "Productivity", "Design", "Marketing",
	"Finance", "Education", "Health", "Gaming", "Other",
}

type Product struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Tagline       string             `json:"tagline" bson:"tagline"`
	Description   string             `json:"description" bson:"description"`
	WebsiteURL    string             `json:"website_url" bson:"website_url"`
	Logo          string             `json:"logo" bson:"logo"`
	Images        []string           `json:"images" bson:"images"`
	Category      string             `json:"category" bson:"category"`
	SubmittedBy   string             `json:"submitted_by" bson:"submitted_by"`     // UUID пользователя из Auth Service
	SubmitterName string             `json:"submitter_name" bson:"submitter_name"` // снимок имени на момент публикации
	UpvoteCount   int64              `json:"upvote_count" bson:"upvote_count"`     // денормализованный счетчик, источник истины - коллекция upvotes
	Featured      bool               `json:"featured" bson:"featured"`
	Status        ProductStatus      `json:"status" bson:"status"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// Upvote - запись реестра голосов. Пара (user_id, product_id) уникальна
type Upvote struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"`
	ProductID primitive.ObjectID `json:"product_id" bson:"product_id"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Comment - комментарий к продукту. ParentID == nil означает комментарий верхнего уровня.
// Replies не хранится в документе и заполняется при чтении
type Comment struct {
	ID         primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Content    string              `json:"content" bson:"content"`
	AuthorID   string              `json:"author_id" bson:"author_id"`
	AuthorName string              `json:"author_name" bson:"author_name"`
	ProductID  primitive.ObjectID  `json:"product_id" bson:"product_id"`
	ParentID   *primitive.ObjectID `json:"parent_id" bson:"parent_id"`
	Replies    []Comment           `json:"replies,omitempty" bson:"-"`
	CreatedAt  time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at" bson:"updated_at"`
}

// IsReply возвращает true для ответа на другой комментарий
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// UpvoteResult - результат переключения голоса
type UpvoteResult struct {
	IsUpvoted   bool  `json:"is_upvoted"`
	UpvoteCount int64 `json:"upvote_count"`
}

// Identity - аутентифицированный пользователь из claims JWT
type Identity struct {
	UserID string
	Name   string
	Role   string
}

// CategoryStat - количество одобренных продуктов в категории
type CategoryStat struct {
	Category string `json:"category" bson:"_id"`
	Count    int64  `json:"count" bson:"count"`
}

// DashboardStats - сводка для админ-панели
type DashboardStats struct {
	TotalProducts    int64 `json:"total_products"`
	PendingProducts  int64 `json:"pending_products"`
	ApprovedProducts int64 `json:"approved_products"`
	RejectedProducts int64 `json:"rejected_products"`
	TotalUpvotes     int64 `json:"total_upvotes"`
	TotalComments    int64 `json:"total_comments"`
}

const (
	EventTypeProductCreated       = "PRODUCT_CREATED"
	EventTypeProductDeleted       = "PRODUCT_DELETED"
	EventTypeProductStatusChanged = "PRODUCT_STATUS_CHANGED"
	EventTypeUpvoteToggled        = "UPVOTE_TOGGLED"
	EventTypeCommentCreated       = "COMMENT_CREATED"
)

// ProductEvent - событие в топике product_events, ключ сообщения = ProductID
type ProductEvent struct {
	EventType string        `json:"event_type"`
	ProductID string        `json:"product_id"`
	UserID    string        `json:"user_id,omitempty"`
	Status    ProductStatus `json:"status,omitempty"`
	IsUpvoted *bool         `json:"is_upvoted,omitempty"`
	CommentID string        `json:"comment_id,omitempty"`
	ParentID  string        `json:"parent_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
