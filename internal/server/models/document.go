package models

import "time"

// DocumentTypeSummons is the code of an uploaded summons letter (wezwanie).
const DocumentTypeSummons = "wezwanie"

// Document is a file uploaded for a client. File holds the object storage key.
type Document struct {
	ID                   int64
	ClientID             int64
	DocumentType         string
	File                 string
	ExpiryDate           *time.Time
	UploadedAt           time.Time
	Verified             bool
	AwaitingConfirmation bool
}

func (d *Document) IsSummons() bool {
	return d.DocumentType == DocumentTypeSummons
}

// DocumentRequirement is a catalog row keyed by (purpose, document type).
type DocumentRequirement struct {
	ID                 int64
	ApplicationPurpose string
	DocumentType       string
	Position           int
	IsRequired         bool
	CustomName         string
	CustomNamePL       string
	CustomNameEN       string
	CustomNameRU       string
}

// CustomNameFor returns the per-language custom name, or "".
func (r *DocumentRequirement) CustomNameFor(lang string) string {
	switch lang {
	case "pl":
		return r.CustomNamePL
	case "en":
		return r.CustomNameEN
	case "ru":
		return r.CustomNameRU
	}
	return ""
}
