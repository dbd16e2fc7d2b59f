package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Track represents one audio asset in the library plus a pointer to its
// stored bytes in object storage.
type Track struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	FileURL   string    `json:"file_url"`
	FileName  string    `json:"file_name"` // object storage key, used for deletion
	Tags      TagList   `json:"tags"`
	FileSize  int64     `json:"file_size"`
	MimeType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
}

// TrackFilter narrows a track listing. Zero values mean "no constraint".
// Filters compose with logical AND.
type TrackFilter struct {
	Tag    string // exact membership match against the tag set
	Search string // case-insensitive substring match against title
	Limit  int    // cap on result count, 0 = unlimited
}

// TagList is a set of lower-cased labels. It unmarshals from either a JSON
// array of strings or a single comma-separated string, since upload clients
// send both forms.
type TagList []string

// UnmarshalJSON accepts ["a","b"] as well as "a, b".
func (t *TagList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*t = NormalizeTags(arr)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseTags(s)
	return nil
}

// MarshalJSON always emits an array, never null.
func (t TagList) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

// Contains reports exact membership. Tags are normalized at write time, so
// no case folding happens here.
func (t TagList) Contains(tag string) bool {
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}

// ParseTags splits a comma-separated string into a normalized tag list.
// An empty string yields an empty list.
func ParseTags(s string) TagList {
	if strings.TrimSpace(s) == "" {
		return TagList{}
	}
	return NormalizeTags(strings.Split(s, ","))
}

// NormalizeTags lower-cases and trims each tag, dropping empties.
func NormalizeTags(tags []string) TagList {
	out := make(TagList, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
