package request

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	stderrors "errors"
	"strings"

	"github.com/listenupapp/shelfwise/internal/errors"
)

// ContentType is a response media type a caller can ask for.
type ContentType string

// Media types understood by the engine.
const (
	None ContentType = ""
	JSON ContentType = "application/json"
	PNG  ContentType = "image/png"
	JPEG ContentType = "image/jpeg"
	PDF  ContentType = "application/pdf"
)

// Body is a successfully negotiated response body.
// Data is empty when the caller expected no body.
type Body struct {
	ContentType ContentType
	Data        []byte
}

// Decode unmarshals a JSON body into v.
func (b *Body) Decode(v any) error {
	if b.ContentType != JSON {
		return errors.InvalidContentType(string(b.ContentType))
	}
	if err := json.Unmarshal(b.Data, v); err != nil {
		return errors.Decode(err)
	}
	return nil
}

// mediaType strips parameters such as charset from a Content-Type header value.
func mediaType(header string) string {
	mt, _, _ := strings.Cut(header, ";")
	return strings.TrimSpace(mt)
}

// negotiate checks the declared media type against the expected one and
// decodes the body accordingly.
func negotiate(expected ContentType, header string, data []byte) (*Body, error) {
	got := mediaType(header)
	if got != string(expected) {
		return nil, errors.BadContentType(got)
	}

	switch expected {
	case JSON:
		if !jsontext.Value(data).IsValid() {
			return nil, errors.Decode(stderrors.New("body is not valid JSON"))
		}
		return &Body{ContentType: JSON, Data: data}, nil
	case PNG, JPEG, PDF:
		return &Body{ContentType: expected, Data: data}, nil
	default:
		return nil, errors.InvalidContentType(got)
	}
}
