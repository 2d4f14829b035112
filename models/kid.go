package models

type CreateKidRequest struct {
	Name                 string `json:"name" binding:"required"`
	Age                  int    `json:"age" binding:"required,min=1,max=30"`
	Gender               string `json:"gender" binding:"omitempty,oneof=Male Female Other"`
	Program              string `json:"program" binding:"required"`
	DOB                  string `json:"dob"`
	School               string `json:"school"`
	Location             string `json:"location"`
	GuardianName         string `json:"guardian_name"`
	GuardianContact      string `json:"guardian_contact"`
	GuardianRelationship string `json:"guardian_relationship"`
	ImageRef             string `json:"image_ref"`
}

type UpdateKidRequest struct {
	Name                 string `json:"name" binding:"required"`
	Age                  int    `json:"age" binding:"required,min=1,max=30"`
	Gender               string `json:"gender" binding:"omitempty,oneof=Male Female Other"`
	Program              string `json:"program" binding:"required"`
	DOB                  string `json:"dob"`
	School               string `json:"school"`
	Location             string `json:"location"`
	GuardianName         string `json:"guardian_name"`
	GuardianContact      string `json:"guardian_contact"`
	GuardianRelationship string `json:"guardian_relationship"`
	ImageRef             string `json:"image_ref"`
}

type KidResponse struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Age                  int    `json:"age"`
	Gender               string `json:"gender"`
	Program              string `json:"program"`
	DOB                  string `json:"dob,omitempty"`
	School               string `json:"school,omitempty"`
	Location             string `json:"location,omitempty"`
	GuardianName         string `json:"guardian_name,omitempty"`
	GuardianContact      string `json:"guardian_contact,omitempty"`
	GuardianRelationship string `json:"guardian_relationship,omitempty"`
	ImageRef             string `json:"image_ref,omitempty"`
	CreatedAt            string `json:"created_at"`
}
