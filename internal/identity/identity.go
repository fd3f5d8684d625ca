// Package identity encodes item references into scannable payload URLs and
// decodes them back.
//
// A payload has the shape {base}/item/{id} for a plain view and
// {base}/item/{id}?notify=1 for a view that notifies the lab manager.
package identity

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// NotifyParam is the query parameter carrying the notify intent.
const NotifyParam = "notify"

const itemPrefix = "/item/"

var (
	// ErrMissingID is returned when no item identifier is given.
	ErrMissingID = errors.New("missing item id")
	// ErrNoOrigin is returned when the base origin is empty. Callers must not
	// emit a payload without an authority.
	ErrNoOrigin = errors.New("no external origin could be resolved")
	// ErrInvalidID is returned for identifiers outside the URL-safe alphabet.
	ErrInvalidID = errors.New("invalid item id")
	// ErrNotItemURL is returned when a payload does not reference an item.
	ErrNotItemURL = errors.New("payload does not reference an item")
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9._~-]{1,128}$`)

// Reference is a decoded item reference.
type Reference struct {
	ID     string
	Notify bool
}

// ValidID reports whether id is drawn from the accepted identifier alphabet.
func ValidID(id string) bool {
	return idPattern.MatchString(id) && id != "." && id != ".."
}

// Path returns the root-relative path of an item view.
func Path(id string, notify bool) string {
	p := itemPrefix + url.PathEscape(id)
	if notify {
		p += "?" + NotifyParam + "=1"
	}
	return p
}

// Encode builds the payload URL for an item.
func Encode(base, id string, notify bool) (string, error) {
	if id == "" {
		return "", ErrMissingID
	}
	if !ValidID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	base = strings.TrimRight(base, "/")
	if base == "" {
		return "", ErrNoOrigin
	}
	return base + Path(id, notify), nil
}

// Decode parses a payload URL (absolute or root-relative) into a reference.
func Decode(payload string) (Reference, error) {
	u, err := url.Parse(strings.TrimSpace(payload))
	if err != nil {
		return Reference{}, fmt.Errorf("%w: %v", ErrNotItemURL, err)
	}

	path := u.EscapedPath()
	i := strings.LastIndex(path, itemPrefix)
	if i < 0 {
		return Reference{}, ErrNotItemURL
	}
	segment := strings.TrimSuffix(path[i+len(itemPrefix):], "/")
	if segment == "" || strings.Contains(segment, "/") {
		return Reference{}, ErrNotItemURL
	}

	id, err := url.PathUnescape(segment)
	if err != nil {
		return Reference{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	if !ValidID(id) {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	return Reference{ID: id, Notify: NotifyIntent(u.Query().Get(NotifyParam))}, nil
}

// Route maps raw scanner output to a root-relative item path. URLs are
// decoded as payloads; anything else is taken as a bare item identifier.
// The result never points off-site.
func Route(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrMissingID
	}

	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(text, "/") {
		ref, err := Decode(text)
		if err != nil {
			return "", err
		}
		return Path(ref.ID, ref.Notify), nil
	}

	if !ValidID(text) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, text)
	}
	return Path(text, false), nil
}

// NotifyIntent reports whether a notify parameter value requests a notification.
func NotifyIntent(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}
