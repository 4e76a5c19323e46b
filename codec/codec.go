// Package codec implements the pure, stateless mapping between typed field
// values and their stored raw-string representation, per field type.
//
// Raw value contracts:
//   - Boolean values are exactly "true" or "false"; an absent value means
//     unset, not false.
//   - MultiChoice values are a comma-joined, lexicographically sorted,
//     de-duplicated subset of option labels, or the empty string.
//   - Text and Number values pass through unchanged.
package codec

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/goliatone/go-fields/pkg/types"
)

// Separator joins multi-choice labels inside a raw value.
const Separator = ","

var namePattern = regexp.MustCompile(`^[A-Za-z0-9\s]+$`)

var disallowedNameChars = regexp.MustCompile(`[^A-Za-z0-9\s]`)

// Value is the decoded, typed form of a stored raw value. Exactly one of the
// payload fields is meaningful, selected by Type.
type Value struct {
	Type   types.FieldType
	Text   string
	Number string
	Bool   bool
	Labels []string
}

// Decode maps a stored raw value into its typed form. For Boolean, anything
// other than the literal "true" decodes to false. For choice types, the raw
// label list is filtered to labels present in the current option set, so
// stale labels are tolerated on read and dropped on the next encode. Text and
// Number pass through unchanged; no implicit numeric parsing happens here.
func Decode(fieldType types.FieldType, rawValue string, options []types.Option) Value {
	switch fieldType {
	case types.FieldTypeText:
		return Value{Type: fieldType, Text: rawValue}
	case types.FieldTypeNumber:
		return Value{Type: fieldType, Number: rawValue}
	case types.FieldTypeBoolean:
		return Value{Type: fieldType, Bool: rawValue == "true"}
	case types.FieldTypeMultiChoice, types.FieldTypeMultiChoiceRadio:
		return Value{Type: fieldType, Labels: filterLabels(SplitLabels(rawValue), options)}
	default:
		return Value{Type: fieldType, Text: rawValue}
	}
}

// Encode maps a typed value back into its raw stored form. Choice labels are
// normalized: falsy entries removed, sorted lexicographically, de-duplicated,
// comma-joined. Value content is never character-restricted; only field names
// are (see ValidateName).
func Encode(value Value) string {
	switch value.Type {
	case types.FieldTypeText:
		return value.Text
	case types.FieldTypeNumber:
		return value.Number
	case types.FieldTypeBoolean:
		if value.Bool {
			return "true"
		}
		return "false"
	case types.FieldTypeMultiChoice, types.FieldTypeMultiChoiceRadio:
		return JoinLabels(value.Labels)
	default:
		return value.Text
	}
}

// SplitLabels splits a multi-choice raw value into its label entries. Empty
// input yields nil.
func SplitLabels(rawValue string) []string {
	if rawValue == "" {
		return nil
	}
	return strings.Split(rawValue, Separator)
}

// JoinLabels normalizes and joins multi-choice labels: empty entries removed,
// sorted lexicographically, de-duplicated.
func JoinLabels(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	sort.Strings(out)
	return strings.Join(out, Separator)
}

// Normalize re-encodes a raw value through decode/encode so stale labels are
// dropped and multi-choice entries are sorted and de-duplicated. Identity for
// non-choice types with well-formed input.
func Normalize(fieldType types.FieldType, rawValue string, options []types.Option) string {
	return Encode(Decode(fieldType, rawValue, options))
}

// ValidateName reports whether the input is an acceptable field name:
// letters, digits, and whitespace only. Applies to definition names, never to
// stored values.
func ValidateName(input string) bool {
	return namePattern.MatchString(input)
}

// SanitizeName strips disallowed characters from a candidate field name.
func SanitizeName(input string) string {
	return disallowedNameChars.ReplaceAllString(input, "")
}

// DecodeOptions parses a stored option-list JSON payload. Malformed input
// degrades to an empty option list rather than an error; callers must treat
// an empty list on a choice field as "render but disable".
func DecodeOptions(raw []byte) []types.Option {
	if len(raw) == 0 {
		return nil
	}
	var options []types.Option
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil
	}
	return options
}

// EncodeOptions serializes an option list for storage.
func EncodeOptions(options []types.Option) ([]byte, error) {
	if len(options) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(options)
}

func filterLabels(labels []string, options []types.Option) []string {
	if len(labels) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(options))
	for _, opt := range options {
		allowed[opt.Label] = struct{}{}
	}
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if _, ok := allowed[label]; ok {
			out = append(out, label)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
