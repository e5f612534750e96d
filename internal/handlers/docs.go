// docs.go publishes the API reference.
//
// GET /api/docs                serves a Redoc page for the document below
// GET /api/docs/openapi.yaml   serves the embedded OpenAPI document
package handlers

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"html/template"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// openAPIETag changes whenever openapi.yaml does, so clients can revalidate.
var openAPIETag = func() string {
	sum := sha256.Sum256(openAPIDocument)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}()

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Lecture Notes API {{.Version}}</title>
  <style>body { margin: 0; }</style>
</head>
<body>
  <redoc spec-url="{{.DocumentURL}}" hide-download-button="false"></redoc>
  <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>
`))

// docsHTML is rendered once; the page has no per-request content.
var docsHTML = func() []byte {
	var buf bytes.Buffer
	err := docsPage.Execute(&buf, struct {
		Version     string
		DocumentURL string
	}{Version, "/api/docs/openapi.yaml"})
	if err != nil {
		log.Printf("⚠️  Failed to render docs page: %v", err)
	}
	return buf.Bytes()
}()

// ServeOpenAPIDocument returns openapi.yaml, or 304 when the client's copy
// is current.
func (h *Handler) ServeOpenAPIDocument(c *gin.Context) {
	c.Header("ETag", openAPIETag)
	if c.GetHeader("If-None-Match") == openAPIETag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/yaml", openAPIDocument)
}

// ServeDocsPage returns the reference page.
func (h *Handler) ServeDocsPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", docsHTML)
}
