package sheet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet/sheettest"
)

const articleType = "/page/article"

const articleDefinition = `<form>
  <sections>
    <section>
      <fields>
        <field><type>input</type><id>headline</id><title>Headline</title></field>
        <field><type>node-selector</type><id>relatedLinks</id><title>Related Links</title></field>
        <field><type>rte</type><id>body</id><title>Body</title></field>
        <field><type>image-picker</type><id>image</id><title>Image</title></field>
      </fields>
    </section>
  </sections>
</form>`

func articleFields() []models.FieldDescriptor {
	return []models.FieldDescriptor{
		{FieldID: "headline", FieldType: models.FieldTypeInput, Title: "Headline"},
		{FieldID: "relatedLinks", FieldType: models.FieldTypeNodeSelector, Title: "Related Links"},
		{FieldID: "body", FieldType: models.FieldTypeRTE, Title: "Body"},
		{FieldID: "image", FieldType: models.FieldTypeImagePicker, Title: "Image"},
	}
}

func relatedLinks(label string) string {
	return `<relatedLinks item-list="true"><item><key>/site/website/` + label + `/index.xml</key><value>` + label + `</value></item></relatedLinks>`
}

func articleDoc(headline, link string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<page>
  <content-type>/page/article</content-type>
  <headline>` + headline + `</headline>
  ` + relatedLinks(link) + `
  <body><![CDATA[<p>Body text</p>]]></body>
  <image>/static-assets/images/Old-banner.png</image>
</page>`
}

// newArticleService holds /a ("Old Title") and /b ("Other").
func newArticleService() *sheettest.Service {
	svc := sheettest.New()
	svc.SetDefinition(articleType, articleDefinition)
	svc.AddItem(articleType, "/a", articleDoc("Old Title", "Contact"))
	svc.AddItem(articleType, "/b", articleDoc("Other", "Contact"))
	return svc
}

func loadedController(t *testing.T, svc ContentService, opts Options) *Controller {
	t.Helper()
	c := NewController(svc, opts)
	c.SetCriteria(models.Criteria{ContentType: articleType})
	require.NoError(t, c.Load(context.Background()))
	require.Equal(t, PhaseReady, c.State().Phase)
	return c
}

func workingRow(t *testing.T, c *Controller, path string) Row {
	t.Helper()
	s := c.State()
	i := rowIndex(s.Working, path)
	require.GreaterOrEqual(t, i, 0, "no working row for %s", path)
	return s.Working[i]
}

func committedRow(t *testing.T, c *Controller, path string) Row {
	t.Helper()
	s := c.State()
	i := rowIndex(s.Committed, path)
	require.GreaterOrEqual(t, i, 0, "no committed row for %s", path)
	return s.Committed[i]
}
