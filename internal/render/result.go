package render

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/flemzord/chatdigest/internal/provider"
)

// DigestResult is the structured payload of a digest response.
type DigestResult struct {
	Topics []Topic `json:"topics"`
}

// Topic is one cluster of messages.
type Topic struct {
	Title           string     `json:"short_title"`
	FirstMessageID  OptionalID `json:"first_message_id"`
	InitiatorUserID OptionalID `json:"initiator_user_id"`
	Summary         string     `json:"summary"`
}

// DigestContract is the structured-output contract for digest requests.
var DigestContract = provider.MustContract("digest", "topics",
	provider.ObjectSchema(map[string]*jsonschema.Schema{
		"topics": provider.ArraySchema(provider.ObjectSchema(map[string]*jsonschema.Schema{
			"short_title":       provider.StringSchema("At most 7 words naming the topic"),
			"first_message_id":  provider.IDSchema("mid of the earliest message of the topic"),
			"initiator_user_id": provider.IDSchema("uid of the author of the earliest message"),
			"summary":           provider.StringSchema("1-3 sentences in the requested style"),
		})),
	}, "topics"))

// OptionalID is a message or user id reported by a model. Models send
// integers, numeric strings or nothing; anything unusable decodes as absent.
type OptionalID struct {
	ID    int64
	Valid bool
}

// ID returns a present id.
func ID(v int64) OptionalID {
	return OptionalID{ID: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler. It never fails.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	*o = OptionalID{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	s := string(data)
	if data[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return nil
		}
		s = strings.TrimSpace(unquoted)
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*o = ID(v)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		*o = ID(int64(f))
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o OptionalID) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, o.ID, 10), nil
}
