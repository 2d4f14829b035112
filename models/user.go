package models

type CreateUserRequest struct {
	Username string   `json:"username" binding:"required"`
	Password string   `json:"password" binding:"required,min=8"`
	Role     string   `json:"role" binding:"required,oneof=admin leader"`
	Programs []string `json:"programs"`
}

type UpdateUserProgramsRequest struct {
	Programs []string `json:"programs" binding:"required"`
}

type UserResponse struct {
	ID       int      `json:"id"`
	Username string   `json:"username"`
	Role     string   `json:"role"`
	Programs []string `json:"programs"`
}
