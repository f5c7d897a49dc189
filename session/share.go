package session

import (
	"net/url"

	"go.uber.org/zap"

	"github.com/querypath/playground/bridge"
	"github.com/querypath/playground/errors"
)

// URL query parameter names. Absence of both means "no shared state".
const (
	documentParam = "xml"
	pathParam     = "path"
)

// SharedState is the decoded shareable URL state. Has* flags distinguish
// absent fields from empty ones.
type SharedState struct {
	Document    string
	Path        string
	HasDocument bool
	HasPath     bool
}

// Share encodes and decodes the shareable URL query string. Decoded
// input comes from shared links and is validated field by field; an
// oversized field is dropped without invalidating the other.
type Share struct {
	defaultDocument string
	log             *zap.Logger
}

// NewShare creates a codec. defaultDocument is the first built-in
// example; links carrying it omit the document field to keep
// default-state links short.
func NewShare(defaultDocument string, log *zap.Logger) *Share {
	if log == nil {
		log = zap.NewNop()
	}
	return &Share{defaultDocument: defaultDocument, log: log}
}

// Encode produces a percent-encoded query string (no leading "?").
// The document is omitted when empty or equal to the default example;
// the path is included whenever non-empty.
func (s *Share) Encode(document, path string) string {
	v := url.Values{}
	if document != "" && document != s.defaultDocument {
		v.Set(documentParam, document)
	}
	if path != "" {
		v.Set(pathParam, path)
	}
	return v.Encode()
}

// Decode parses a raw query string. Each field is validated against its
// own size limit and set absent on violation; a malformed query string
// yields no shared state at all. Discards are logged, never surfaced.
func (s *Share) Decode(rawQuery string) SharedState {
	var state SharedState

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		s.log.Warn("discarding shared state",
			zap.Error(errors.SharedStateCorrupt("query")), zap.NamedError("cause", err))
		return state
	}

	if values.Has(documentParam) {
		doc := values.Get(documentParam)
		if len(doc) <= bridge.MaxDocumentBytes {
			state.Document = doc
			state.HasDocument = true
		} else {
			s.log.Warn("discarding shared field",
				zap.Error(errors.SharedStateCorrupt(documentParam)), zap.Int("bytes", len(doc)))
		}
	}

	if values.Has(pathParam) {
		p := values.Get(pathParam)
		if len(p) <= bridge.MaxPathBytes {
			state.Path = p
			state.HasPath = true
		} else {
			s.log.Warn("discarding shared field",
				zap.Error(errors.SharedStateCorrupt(pathParam)), zap.Int("bytes", len(p)))
		}
	}

	return state
}
