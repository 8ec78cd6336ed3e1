package model

// JSONMap represents a generic JSON object
type JSONMap map[string]interface{}

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}
