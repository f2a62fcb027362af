package entity

// CreateProductRequest - запрос на публикацию продукта
type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=100"`
	Tagline     string   `json:"tagline" validate:"required,min=5,max=200"`
	Description string   `json:"description" validate:"required,min=10,max=1000"`
	WebsiteURL  string   `json:"website_url" validate:"required,url"`
	Logo        string   `json:"logo" validate:"required,url"`
	Images      []string `json:"images" validate:"required,min=1,max=5,dive,url"`
	Category    string   `json:"category" validate:"required,oneof=AI SaaS Devtools Productivity Design Marketing Finance Education Health Gaming Other"`
}

// CreateCommentRequest - запрос на создание комментария или ответа
type CreateCommentRequest struct {
	ProductID       string `json:"product_id" validate:"required"`
	Content         string `json:"content" validate:"required"`
	ParentCommentID string `json:"parent_comment_id,omitempty"`
}

// UpdateStatusRequest - решение модерации
type UpdateStatusRequest struct {
	Status ProductStatus `json:"status" validate:"required,oneof=pending approved rejected"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ProductResponse - продукт с отметкой о голосе текущего пользователя
type ProductResponse struct {
	Product
	IsUpvoted bool `json:"is_upvoted"`
}

// ProductListResponse - ответ со списком продуктов
type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// CommentListResponse - ответ со списком комментариев
type CommentListResponse struct {
	Comments []Comment `json:"comments"`
	Total    int       `json:"total"`
}

// ToggleUpvoteResponse - ответ на переключение голоса
type ToggleUpvoteResponse struct {
	Message string `json:"message"`
	UpvoteResult
}

// CategoriesResponse - категории с количеством одобренных продуктов
type CategoriesResponse struct {
	Categories []CategoryStat `json:"categories"`
}
