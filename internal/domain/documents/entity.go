package documents

import (
	"fmt"
	"path"
	"time"
)

// Type classifies what an uploaded document depicts
type Type string

const (
	TypeFloorPlan     Type = "floor_plan"
	TypeEquipmentList Type = "equipment_list"
	TypePhoto         Type = "photo"
	TypeOther         Type = "other"
)

// Document is one uploaded artifact of a project. Rows are never updated.
type Document struct {
	ID             string    `json:"id" db:"id"`
	ProjectID      string    `json:"project_id" db:"project_id"`
	FileURL        string    `json:"file_url" db:"file_url"`
	FileName       string    `json:"file_name" db:"file_name"`
	FileSize       *int64    `json:"file_size" db:"file_size"`
	MimeType       *string   `json:"mime_type" db:"mime_type"`
	DocumentType   Type      `json:"document_type" db:"document_type"`
	RecognizedText *string   `json:"recognized_text" db:"recognized_text"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ObjectKey is where an upload is stored: <userID>/<projectID>/<unixMillis>-<fileName>.
// Path separators in the file name are dropped so the key keeps three segments.
func ObjectKey(userID, projectID string, at time.Time, fileName string) string {
	name := path.Base("/" + fileName)
	if name == "/" || name == "." {
		name = "upload"
	}
	return fmt.Sprintf("%s/%s/%d-%s", userID, projectID, at.UnixMilli(), name)
}
