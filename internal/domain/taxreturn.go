package domain

import "time"

// Return types prepared by staff for an application.
const (
	ReturnTypeDraft = "draft"
	ReturnTypeFinal = "final"
)

// ValidReturnType reports whether t is a known return type.
func ValidReturnType(t string) bool {
	return t == ReturnTypeDraft || t == ReturnTypeFinal
}

// TaxReturn is the metadata for a staff-prepared return file.
// PK: application_id, SK: return_type, so at most one current file exists
// per (application, type); a re-upload overwrites the record and the old
// blob is removed. The blob itself is age-encrypted at rest; Size is the
// plaintext size.
type TaxReturn struct {
	ApplicationID string    `json:"applicationId" dynamodbav:"application_id"`
	ReturnType    string    `json:"returnType" dynamodbav:"return_type"`
	OriginalName  string    `json:"originalName" dynamodbav:"original_name"`
	ContentType   string    `json:"contentType" dynamodbav:"content_type"`
	Size          int64     `json:"size" dynamodbav:"size"`
	StoragePath   string    `json:"storagePath" dynamodbav:"storage_path"`
	UploadedBy    string    `json:"uploadedBy" dynamodbav:"uploaded_by"`
	UploadedAt    time.Time `json:"uploadedAt" dynamodbav:"uploaded_at"`
}
