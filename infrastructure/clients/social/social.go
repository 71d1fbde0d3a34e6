// Package social holds the REST adapters for the platforms LinkHub talks to
// over plain JSON APIs. YouTube lives in its own package because it goes
// through the Google client library.
package social

import (
	"net/http"
	"strings"

	"linkhub/domain/model"
	"linkhub/domain/repository"

	"github.com/carlmjohnson/requests"
	"github.com/google/go-querystring/query"
)

const analyticsPageSize = 10

// withQuery encodes opts with go-querystring and appends it to the request
func withQuery(rb *requests.Builder, opts interface{}) (*requests.Builder, error) {
	v, err := query.Values(opts)
	if err != nil {
		return nil, err
	}
	for k, vals := range v {
		rb = rb.Param(k, vals...)
	}
	return rb, nil
}

// failed builds a publish failure, translating auth rejections so the user
// knows to reconnect
func failed(err error) repository.PublishOutcome {
	msg := err.Error()
	if requests.HasStatusErr(err, http.StatusUnauthorized, http.StatusForbidden) {
		msg = "access token rejected: " + msg
	}
	return repository.PublishOutcome{Success: false, Error: msg}
}

func failedMsg(msg string) repository.PublishOutcome {
	return repository.PublishOutcome{Success: false, Error: msg}
}

func succeeded(id string) repository.PublishOutcome {
	return repository.PublishOutcome{Success: true, ExternalID: id}
}

// firstMedia returns the first attachment of one of the given kinds
func firstMedia(post model.Post, kinds ...model.MediaKind) (model.Media, bool) {
	for _, m := range post.Media {
		for _, k := range kinds {
			if m.Kind == k {
				return m, true
			}
		}
	}
	return model.Media{}, false
}

// withLinks appends link attachments the text does not already mention
func withLinks(post model.Post) string {
	text := post.Content
	for _, m := range post.Media {
		if m.Kind == model.MediaLink && !strings.Contains(text, m.URL) {
			text = strings.TrimSpace(text + " " + m.URL)
		}
	}
	return text
}

func baseURL(configured, fallback string) string {
	if configured == "" {
		return fallback
	}
	return strings.TrimRight(configured, "/")
}
