package types

// FieldType enumerates the closed set of supported custom field types.
// MultiChoice is a multi-select; MultiChoiceRadio is single-select-from-list
// (the name is kept for wire compatibility with existing stored definitions).
type FieldType string

const (
	FieldTypeText             FieldType = "text"
	FieldTypeNumber           FieldType = "number"
	FieldTypeBoolean          FieldType = "boolean"
	FieldTypeMultiChoice      FieldType = "multi_choice"
	FieldTypeMultiChoiceRadio FieldType = "multi_choice_radio"
)

// AllFieldTypes lists every supported field type in declaration order.
func AllFieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeNumber,
		FieldTypeBoolean,
		FieldTypeMultiChoice,
		FieldTypeMultiChoiceRadio,
	}
}

// Valid reports whether the field type is a member of the supported set.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeBoolean, FieldTypeMultiChoice, FieldTypeMultiChoiceRadio:
		return true
	}
	return false
}

// IsChoice reports whether the field type is option-backed. Choice fields
// require a non-empty option list to be usable.
func (t FieldType) IsChoice() bool {
	return t == FieldTypeMultiChoice || t == FieldTypeMultiChoiceRadio
}
