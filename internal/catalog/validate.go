package catalog

import (
	"encoding/json"
	"errors"
	"fmt"

	"podboard/internal/domain"
)

type object map[string]json.RawMessage

// Validate parses data as a podcast record. It returns a *DecodeError for
// malformed JSON and a *ShapeError when podcast_details or its
// podcast_title is missing or of the wrong type. Keys are matched exactly.
// Optional fields of the wrong type are left empty and do not reject the
// document.
func Validate(data []byte) (domain.PodcastRecord, error) {
	var top object
	if err := json.Unmarshal(data, &top); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return domain.PodcastRecord{}, &ShapeError{Reason: fmt.Sprintf("top-level %s is not an object", typeErr.Value)}
		}
		return domain.PodcastRecord{}, &DecodeError{Err: err}
	}

	rawDetails, ok := top.field("podcast_details")
	if !ok {
		return domain.PodcastRecord{}, &ShapeError{Reason: "missing podcast_details"}
	}
	var details object
	if err := json.Unmarshal(rawDetails, &details); err != nil {
		return domain.PodcastRecord{}, &ShapeError{Reason: "podcast_details " + describe(err, "object")}
	}

	rawTitle, ok := details.field("podcast_title")
	if !ok {
		return domain.PodcastRecord{}, &ShapeError{Reason: "missing podcast_details.podcast_title"}
	}
	var title string
	if err := json.Unmarshal(rawTitle, &title); err != nil {
		return domain.PodcastRecord{}, &ShapeError{Reason: "podcast_details.podcast_title " + describe(err, "string")}
	}

	var guest object
	if raw, ok := top.field("podcast_guest"); ok {
		_ = json.Unmarshal(raw, &guest)
	}

	return domain.NewRecord(
		title,
		details.str("episode_title"),
		details.str("episode_image"),
		top.str("podcast_summary"),
		domain.PodcastGuest{Name: guest.str("name"), Summary: guest.str("summary")},
		top.str("podcast_highlights"),
	), nil
}

// field returns the raw value under key. A JSON null counts as absent.
func (o object) field(key string) (json.RawMessage, bool) {
	raw, ok := o[key]
	if !ok || string(raw) == "null" {
		return nil, false
	}
	return raw, true
}

// str returns the string under key, or "" when it is absent or not a string.
func (o object) str(key string) string {
	raw, ok := o.field(key)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func describe(err error, want string) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("is a %s, want %s", typeErr.Value, want)
	}
	return err.Error()
}
