package entities

import "time"

type Document struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"companyId"`
	Filename     string    `json:"filename"`     // Name on disk
	OriginalName string    `json:"originalName"` // Name as uploaded
	MimeType     string    `json:"fileType"`
	FileSize     int64     `json:"fileSize"`
	Content      string    `json:"content,omitempty"`
	Language     Language  `json:"language"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type DocumentFilter struct {
	Search   string
	Language string // "" or "all" disables the filter
	Page     int
	Limit    int
}

func (f DocumentFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
