package entity

// UpdateClassificationRequest - запрос на обновление заметок к классификации.
// Передача пустой строки очищает заметки.
type UpdateClassificationRequest struct {
	Notes *string `json:"notes" validate:"required,max=500"`
}

// ClassificationListResponse - страница списка классификаций
type ClassificationListResponse struct {
	Items []Classification `json:"items"`
	Total int64            `json:"total"`
	Skip  int              `json:"skip"`
	Limit int              `json:"limit"`
}

// AuditLogListResponse - страница журнала аудита
type AuditLogListResponse struct {
	Items []AuditLog `json:"items"`
	Total int64      `json:"total"`
	Skip  int        `json:"skip"`
	Limit int        `json:"limit"`
}

// ClientMeta - метаданные клиента для журнала аудита
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
