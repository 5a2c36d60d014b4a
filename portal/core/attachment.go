package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

const MaxAttachmentSize = 10 << 20

// Attachment is an uploaded image kept in memory until relayed
type Attachment struct {
	FileName string
	MimeType string
	Data     []byte
}

// AttachmentStore persists an attachment and returns its reference
type AttachmentStore interface {
	Upload(ctx context.Context, name, mimeType string, data []byte) (string, error)
}

type FileUploader interface {
	UploadFile(ctx context.Context, fileName, mimeType string, data []byte, folderID string) (string, error)
}

// GatewayAttachments relays attachments to the gateway's drive folder
type GatewayAttachments struct {
	Gateway  FileUploader
	FolderID string
}

func (g GatewayAttachments) Upload(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	return g.Gateway.UploadFile(ctx, name, mimeType, data, g.FolderID)
}

func (a *Attachment) check(field string, errs ValidationErrors) {
	if a == nil {
		return
	}
	if !strings.HasPrefix(a.MimeType, "image/") {
		errs.add(field, "Please select a valid image file")
		return
	}
	if len(a.Data) > MaxAttachmentSize {
		errs.add(field, "File size should be less than 10MB")
	}
}

func (a *Attachment) ext() string {
	ext := strings.TrimPrefix(filepath.Ext(a.FileName), ".")
	if ext == "" {
		if _, sub, ok := strings.Cut(a.MimeType, "/"); ok && sub != "" {
			return sub
		}
		return "jpg"
	}
	return ext
}

// storedName builds e.g. in_vehicle_meter_Asha_2024-03-01.jpg
func (a *Attachment) storedName(prefix, employee, date string) string {
	return fmt.Sprintf("%s_%s_%s.%s", prefix, employee, date, a.ext())
}
