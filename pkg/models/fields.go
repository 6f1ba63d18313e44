package models

// FieldType is the type tag of a content-type field as declared in its form definition.
type FieldType string

// Field types understood by the sheet. Any other tag is kept as an opaque FieldType.
const (
	FieldTypeInput        FieldType = "input"
	FieldTypeNumericInput FieldType = "numeric-input"
	FieldTypeTextarea     FieldType = "textarea"
	FieldTypeRTE          FieldType = "rte"
	FieldTypeVideoPicker  FieldType = "video-picker"
	FieldTypeImagePicker  FieldType = "image-picker"
	FieldTypeAutoFilename FieldType = "auto-filename"
	FieldTypeNodeSelector FieldType = "node-selector"
)

var renderableFieldTypes = []FieldType{
	FieldTypeInput,
	FieldTypeNumericInput,
	FieldTypeTextarea,
	FieldTypeRTE,
	FieldTypeVideoPicker,
	FieldTypeImagePicker,
}

var unsupportedFieldTypes = []FieldType{
	FieldTypeAutoFilename,
}

// FieldDescriptor describes one editable column derived from a content type.
type FieldDescriptor struct {
	FieldID   string    `json:"field_id" yaml:"field_id"`
	FieldType FieldType `json:"field_type" yaml:"field_type"`
	Title     string    `json:"title" yaml:"title"`
}

// IsRenderable reports whether values of this type can be shown as plain cell text.
func (t FieldType) IsRenderable() bool {
	return containsType(renderableFieldTypes, t)
}

// IsUnsupported reports whether fields of this type are left out of the sheet entirely.
func (t FieldType) IsUnsupported() bool {
	return containsType(unsupportedFieldTypes, t)
}

// IsMedia reports whether the field references a video or image asset.
func (t FieldType) IsMedia() bool {
	return t == FieldTypeVideoPicker || t == FieldTypeImagePicker
}

// IsRichText reports whether the field holds HTML produced by a rich text editor.
func (t FieldType) IsRichText() bool {
	return t == FieldTypeRTE
}

// IsReferenceList reports whether the field holds a structured item list rather than text.
func (t FieldType) IsReferenceList() bool {
	return t == FieldTypeNodeSelector
}

// IsInlineEditable reports whether the cell can be edited directly in the grid.
// Everything else goes through the direct-edit collaborator.
func (t FieldType) IsInlineEditable() bool {
	return t.IsRenderable() && !t.IsRichText() && !t.IsMedia()
}

// SupportsSubstitution reports whether find/replace may rewrite values of this type.
func (t FieldType) SupportsSubstitution() bool {
	if t.IsMedia() {
		return false
	}
	return t.IsRenderable() || t.IsReferenceList()
}

func containsType(types []FieldType, t FieldType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
