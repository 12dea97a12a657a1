// Package response implements the JSON envelope shared by every service:
// {success, data?, error?, message?}, with a pagination block on list replies.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the wire format of every response
type Envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes the page window of a list response
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes the page count for a list response
func NewPagination(total int64, page, limit int) *Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Pagination{Total: total, Page: page, Limit: limit, TotalPages: totalPages}
}

// OK answers 200 with data
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created answers 201 with data
func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Message answers 200 with a message and no data
func Message(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: message})
}

// List answers 200 with data and pagination
func List(c echo.Context, data interface{}, total int64, page, limit int) error {
	return c.JSON(http.StatusOK, Envelope{
		Success:    true,
		Data:       data,
		Pagination: NewPagination(total, page, limit),
	})
}

// Error answers the given status with an error message
func Error(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: false, Error: message})
}
