package service

import (
	"errors"
	"fmt"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrProductNotFound = errors.New("product not found")
	ErrParentNotFound  = errors.New("parent comment not found")
	ErrForbidden       = errors.New("access denied")

	// ErrInvalidStatusTransition - статус можно сменить только из pending
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrValidation объединяет ошибки входных данных, handler отдает по нему 400
	ErrValidation = errors.New("validation failed")

	ErrEmptyContent          = fmt.Errorf("%w: comment content is required", ErrValidation)
	ErrContentTooLong        = fmt.Errorf("%w: comment content must be at most %d characters", ErrValidation, MaxCommentLength)
	ErrParentProductMismatch = fmt.Errorf("%w: parent comment belongs to another product", ErrValidation)
	ErrReplyDepthExceeded    = fmt.Errorf("%w: replies to replies are not allowed", ErrValidation)
	ErrInvalidStatus         = fmt.Errorf("%w: status must be approved or rejected", ErrValidation)
	ErrInvalidCategory       = fmt.Errorf("%w: unknown category", ErrValidation)
)
