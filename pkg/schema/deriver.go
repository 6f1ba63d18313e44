// Package schema turns content-type form definitions into sheet columns.
package schema

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

// FieldsPath is where field definitions live inside a form-definition.xml document.
const FieldsPath = "./form/sections/section/fields/field"

// DeriveFields returns the editable fields of a form definition in document order.
// Fields of an unsupported type and fields without an id are skipped.
// An empty definition yields no fields and no error.
func DeriveFields(definition string) ([]models.FieldDescriptor, error) {
	if strings.TrimSpace(definition) == "" {
		return []models.FieldDescriptor{}, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(definition); err != nil {
		return nil, fmt.Errorf("failed to parse form definition: %w", err)
	}

	fields := []models.FieldDescriptor{}
	for _, node := range doc.FindElements(FieldsPath) {
		fieldType := models.FieldType(childText(node, "type"))
		if fieldType.IsUnsupported() {
			continue
		}

		fieldID := childText(node, "id")
		if fieldID == "" {
			continue
		}

		fields = append(fields, models.FieldDescriptor{
			FieldID:   fieldID,
			FieldType: fieldType,
			Title:     childText(node, "title"),
		})
	}

	return fields, nil
}

// Lookup finds a field by id.
func Lookup(fields []models.FieldDescriptor, fieldID string) (models.FieldDescriptor, bool) {
	for _, f := range fields {
		if f.FieldID == fieldID {
			return f, true
		}
	}
	return models.FieldDescriptor{}, false
}

func childText(node *etree.Element, tag string) string {
	child := node.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}
