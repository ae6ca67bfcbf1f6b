package model

// File references an uploaded resume. When a storage backend is configured
// the blob lives under StorageObjectName and Content stays empty; without
// one the bytes are kept inline in the row.
type File struct {
	ID                int     `gorm:"primaryKey" json:"id"`
	Extension         string  `gorm:"type:text" json:"extension"`
	StorageObjectName *string `gorm:"type:text" json:"storage_object_name,omitempty"`
	Content           []byte  `json:"-"`
}
