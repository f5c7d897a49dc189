package session

import (
	"net/url"
	"strings"
	"testing"

	"github.com/querypath/playground/bridge"
)

const defaultDoc = `<library><book>test</book></library>`

func TestShare_RoundTrip(t *testing.T) {
	s := NewShare(defaultDoc, nil)

	doc := `<a attr="v&al"><b>1</b></a>`
	path := `a.b.#text`

	state := s.Decode(s.Encode(doc, path))
	if !state.HasDocument || state.Document != doc {
		t.Errorf("document = %q (has=%v), want %q", state.Document, state.HasDocument, doc)
	}
	if !state.HasPath || state.Path != path {
		t.Errorf("path = %q (has=%v), want %q", state.Path, state.HasPath, path)
	}
}

func TestShare_DefaultDocumentOmitted(t *testing.T) {
	s := NewShare(defaultDoc, nil)

	raw := s.Encode(defaultDoc, "library.book")
	values, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if values.Has("xml") {
		t.Error("default document was encoded")
	}
	if values.Get("path") != "library.book" {
		t.Errorf("path = %q", values.Get("path"))
	}
}

func TestShare_EmptyStateEncodesEmpty(t *testing.T) {
	s := NewShare(defaultDoc, nil)
	if raw := s.Encode("", ""); raw != "" {
		t.Errorf("Encode(empty) = %q, want empty", raw)
	}
}

func TestShare_DecodeAbsentFields(t *testing.T) {
	s := NewShare(defaultDoc, nil)

	state := s.Decode("")
	if state.HasDocument || state.HasPath {
		t.Errorf("empty query decoded to %+v", state)
	}
}

func TestShare_DecodeEmptyFieldIsPresent(t *testing.T) {
	s := NewShare(defaultDoc, nil)

	// "xml=" carries an explicit empty document, distinct from absence.
	state := s.Decode("xml=&path=a.b")
	if !state.HasDocument || state.Document != "" {
		t.Errorf("document = %q (has=%v), want present empty", state.Document, state.HasDocument)
	}
	if !state.HasPath || state.Path != "a.b" {
		t.Errorf("path = %q (has=%v)", state.Path, state.HasPath)
	}
}

func TestShare_OversizedFieldDroppedIndependently(t *testing.T) {
	s := NewShare(defaultDoc, nil)

	bigDoc := strings.Repeat("x", bridge.MaxDocumentBytes+1)
	state := s.Decode("xml=" + url.QueryEscape(bigDoc) + "&path=a.b")
	if state.HasDocument {
		t.Error("oversized document was accepted")
	}
	if !state.HasPath || state.Path != "a.b" {
		t.Error("valid path was dropped alongside the oversized document")
	}

	bigPath := strings.Repeat("p", bridge.MaxPathBytes+1)
	state = s.Decode("xml=" + url.QueryEscape("<a/>") + "&path=" + bigPath)
	if state.HasPath {
		t.Error("oversized path was accepted")
	}
	if !state.HasDocument || state.Document != "<a/>" {
		t.Error("valid document was dropped alongside the oversized path")
	}
}

func TestShare_FieldsAtLimitAccepted(t *testing.T) {
	s := NewShare(defaultDoc, nil)

	doc := strings.Repeat("x", bridge.MaxDocumentBytes)
	path := strings.Repeat("p", bridge.MaxPathBytes)
	state := s.Decode("xml=" + url.QueryEscape(doc) + "&path=" + path)
	if !state.HasDocument || !state.HasPath {
		t.Error("fields exactly at their limits were rejected")
	}
}

func TestShare_MalformedQueryYieldsNothing(t *testing.T) {
	s := NewShare(defaultDoc, nil)

	state := s.Decode("xml=%zz&path=a.b")
	if state.HasDocument || state.HasPath {
		t.Errorf("malformed query decoded to %+v", state)
	}
}
