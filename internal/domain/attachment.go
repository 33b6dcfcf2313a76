package domain

import (
	"time"

	"tutorhub.io/tutorhub/internal/mapping"
)

// OwnerKind names the entity an attachment belongs to.
type OwnerKind string

const (
	OwnerTeacher  OwnerKind = "teacher"
	OwnerCustomer OwnerKind = "customer"
	OwnerStudent  OwnerKind = "student"
	OwnerGroup    OwnerKind = "group"
	OwnerLesson   OwnerKind = "lesson"
)

// OwnerKinds lists every accepted owner kind.
var OwnerKinds = []OwnerKind{OwnerTeacher, OwnerCustomer, OwnerStudent, OwnerGroup, OwnerLesson}

// Valid reports whether k is a known owner kind.
func (k OwnerKind) Valid() bool {
	for _, v := range OwnerKinds {
		if k == v {
			return true
		}
	}
	return false
}

// Attachment is file metadata. The content lives in the blob store under
// StorageKey.
type Attachment struct {
	ID          int64     `json:"id"`
	OwnerKind   OwnerKind `json:"owner_kind"`
	OwnerID     int64     `json:"owner_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"-"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

var (
	AttachmentSchema = mapping.MustSchema("Attachment",
		mapping.IDField("id", func(a *Attachment) *int64 { return &a.ID }).MustBuild(),
		mapping.NewField[Attachment]("ownerKind").
			Column("owner_kind").
			Kind(mapping.Text).
			Get(mapping.Convert(func(a Attachment) OwnerKind { return a.OwnerKind },
				func(k OwnerKind) string { return string(k) })).
			Scan(func(a *Attachment) any { return (*string)(&a.OwnerKind) }).
			Mandatory().
			MustBuild(),
		mapping.IntField("ownerId", func(a *Attachment) *int64 { return &a.OwnerID }).
			Column("owner_id").Mandatory().MustBuild(),
		mapping.TextField("fileName", func(a *Attachment) *string { return &a.FileName }).
			Column("file_name").Mandatory().MustBuild(),
		mapping.TextField("contentType", func(a *Attachment) *string { return &a.ContentType }).
			Column("content_type").MustBuild(),
		mapping.IntField("sizeBytes", func(a *Attachment) *int64 { return &a.SizeBytes }).
			Column("size_bytes").MustBuild(),
		mapping.TextField("storageKey", func(a *Attachment) *string { return &a.StorageKey }).
			Column("storage_key").Mandatory().MustBuild(),
		mapping.TimestampField("uploadedAt", func(a *Attachment) *time.Time { return &a.UploadedAt }).
			Column("uploaded_at").Mandatory().MustBuild(),
	)
	AttachmentUpdateSchema = AttachmentSchema.MustWithMandatory("id")
)

func (a Attachment) String() string { return AttachmentSchema.Map(a).String() }

func (a Attachment) Equal(o Attachment) bool { return AttachmentSchema.Equal(a, o) }
