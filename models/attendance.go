package models

type AttendanceEntry struct {
	KidID   string `json:"kid_id" binding:"required"`
	Present bool   `json:"present"`
	Note    string `json:"note"`
}

type MarkAttendanceRequest struct {
	Date    string            `json:"date" binding:"required,datetime=2006-01-02"`
	Entries []AttendanceEntry `json:"entries" binding:"required,dive"`
}

type AttendanceRecordResponse struct {
	Date      string `json:"date"`
	KidID     string `json:"kid_id"`
	KidName   string `json:"kid_name,omitempty"`
	Present   bool   `json:"present"`
	Note      string `json:"note"`
	Program   string `json:"program"`
	MarkedBy  string `json:"marked_by"`
	Timestamp string `json:"timestamp"`
}

// DaySheetRow is one kid on the attendance sheet for a date: the kid plus
// their record for that date, if one exists.
type DaySheetRow struct {
	KidID   string `json:"kid_id"`
	KidName string `json:"kid_name"`
	Program string `json:"program"`
	Marked  bool   `json:"marked"`
	Present bool   `json:"present"`
	Note    string `json:"note"`
}
