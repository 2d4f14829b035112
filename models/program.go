package models

type CreateProgramRequest struct {
	Name string `json:"name" binding:"required"`
}

type ProgramResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
