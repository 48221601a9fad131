package domain

import "time"

// Document is the metadata record for one end-user-uploaded file. The storage
// path embeds the true owning user id (category/ownerID/timestamp-random.ext)
// so documents from different owners can never collide. Never mutated after
// creation; removed only by an explicit delete.
type Document struct {
	DocumentID    string    `json:"id" dynamodbav:"document_id"`
	OriginalName  string    `json:"originalName" dynamodbav:"original_name"`
	ContentType   string    `json:"contentType" dynamodbav:"content_type"`
	Size          int64     `json:"size" dynamodbav:"size"`
	Category      string    `json:"category" dynamodbav:"category"`
	StoragePath   string    `json:"storagePath" dynamodbav:"storage_path"`
	OwnerUserID   string    `json:"userId" dynamodbav:"user_id"`
	ApplicationID string    `json:"applicationId,omitempty" dynamodbav:"application_id,omitempty"`
	UploadedAt    time.Time `json:"uploadedAt" dynamodbav:"uploaded_at"`
}
