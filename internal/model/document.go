package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is the approval state of a document.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsDecision reports whether s is a value accepted by a status update.
// Pending is the initial state only and cannot be set explicitly.
func (s Status) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// Change summaries recorded in a document history.
const (
	SummaryInitialUpload   = "Initial upload"
	SummaryMetadataUpdated = "Metadata updated"
)

// HistoryEntry is one audit record describing a single change to a document.
type HistoryEntry struct {
	Version       int       `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
	Actor         string    `json:"actor"`
	ChangeSummary string    `json:"changeSummary"`
}

// Document represents an uploaded file together with its versioned metadata.
// File attributes (StoredName, OriginalName, Size, MimeType) are fixed at creation.
type Document struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Category        string         `json:"category"`
	Department      string         `json:"department"`
	Confidentiality string         `json:"confidentiality"`
	Tags            []string       `json:"tags"`
	StoredName      string         `json:"storedName"`
	OriginalName    string         `json:"originalName"`
	Size            int64          `json:"size"`
	MimeType        string         `json:"mimeType"`
	Status          Status         `json:"status"`
	Version         int            `json:"version"`
	UploadedAt      time.Time      `json:"uploadedAt"`
	UploadedBy      string         `json:"uploadedBy"`
	History         []HistoryEntry `json:"history"`
}

// Clone returns a deep copy of d so callers cannot alias repository state.
func (d *Document) Clone() *Document {
	out := *d
	out.Tags = append([]string(nil), d.Tags...)
	out.History = append([]HistoryEntry(nil), d.History...)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return &out
}

// DocumentUpdate is a whitelisted partial metadata update.
// A nil field leaves the stored value untouched. Identity and file
// attributes are intentionally not representable here.
type DocumentUpdate struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Category        *string `json:"category"`
	Department      *string `json:"department"`
	Confidentiality *string `json:"confidentiality"`
	Tags            *TagSet `json:"tags"`
}

// Apply merges the present fields of u onto d.
func (u DocumentUpdate) Apply(d *Document) {
	if u.Title != nil {
		d.Title = *u.Title
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.Category != nil {
		d.Category = *u.Category
	}
	if u.Department != nil {
		d.Department = *u.Department
	}
	if u.Confidentiality != nil {
		d.Confidentiality = *u.Confidentiality
	}
	if u.Tags != nil {
		d.Tags = append([]string{}, (*u.Tags)...)
	}
}

// TagSet is an ordered set of trimmed, non-empty tags.
// It decodes from either a JSON array or a comma separated JSON string.
type TagSet []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *TagSet) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = ParseTags(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*t = NormalizeTags(list)
	return nil
}

// ParseTags splits a comma separated tag string into a TagSet.
func ParseTags(s string) TagSet {
	return NormalizeTags(strings.Split(s, ","))
}

// NormalizeTags trims every tag, drops empty ones and removes duplicates
// keeping the first occurrence. Case is preserved.
func NormalizeTags(in []string) TagSet {
	out := make(TagSet, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Stats holds the dashboard counters.
type Stats struct {
	TotalDocuments   int   `json:"totalDocuments"`
	PendingApprovals int   `json:"pendingApprovals"`
	StorageUsedBytes int64 `json:"storageUsedBytes"`
	ActiveUsers      int   `json:"activeUsers"`
}

// Activity is a history entry flattened together with its owning document.
type Activity struct {
	DocumentID    string    `json:"documentId"`
	DocumentTitle string    `json:"documentTitle"`
	Version       int       `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
	Actor         string    `json:"actor"`
	ChangeSummary string    `json:"changeSummary"`
}
