package api

import "corkboard/board"

const taskRequestMaxSize = 64 * 1024 // 64 KiB

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"desc"`
}

type moveRequest struct {
	Column string `json:"column"`
}

// GET /api/board response body
type boardResponse struct {
	Columns []board.ColumnView `json:"columns"`
}
