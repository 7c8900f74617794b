package notify

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"text/template"
)

//go:embed templates
var templateFS embed.FS

// Key names an e-mail kind.
type Key string

const (
	KeyRequiredDocuments Key = "required_documents"
	KeyExpiredDocuments  Key = "expired_documents"
	KeyMissingDocuments  Key = "missing_documents"
	KeyExpiringDocuments Key = "expiring_documents"
	KeyAppointment       Key = "appointment_notification"
)

var subjects = map[Key]map[string]string{
	KeyRequiredDocuments: {
		"pl": "Lista wymaganych dokumentów",
		"en": "Required documents checklist",
		"ru": "Список необходимых документов",
	},
	KeyExpiredDocuments: {
		"pl": "Dokumenty, które straciły ważność po złożeniu odcisków palców",
		"en": "Expired documents after fingerprint submission",
		"ru": "Истекшие документы после сдачи отпечатков",
	},
	KeyMissingDocuments: {
		"pl": "Lista brakujących dokumentów",
		"en": "Missing documents",
		"ru": "Список недостающих документов",
	},
	KeyExpiringDocuments: {
		"pl": "Dokumenty wkrótce tracą ważność",
		"en": "Documents expiring soon",
		"ru": "Документы скоро истекают",
	},
	KeyAppointment: {
		"pl": "Powiadomienie o terminie wizyty",
		"en": "Appointment notification",
		"ru": "Уведомление о встрече",
	},
}

// Subject returns the subject line of key in lang, or "" for unknown keys.
func Subject(key Key, lang string) string {
	return subjects[key][lang]
}

// templates holds every parsed body keyed by its path below templates/,
// e.g. "pl/missing_documents.txt" or "missing_documents.txt".
type templates map[string]*template.Template

func loadTemplates() (templates, error) {
	out := templates{}
	err := fs.WalkDir(templateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := path[len("templates/"):]
		t, err := template.ParseFS(templateFS, path)
		if err != nil {
			return err
		}
		out[name] = t
		return nil
	})
	return out, err
}

// render executes the language variant of key, falling back to the
// default variant.
func (ts templates) render(key Key, lang string, data any) (string, error) {
	t, ok := ts[lang+"/"+string(key)+".txt"]
	if !ok {
		t, ok = ts[string(key)+".txt"]
	}
	if !ok {
		return "", fmt.Errorf("no template for %s", key)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
