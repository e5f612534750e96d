// files.go handles document uploads and file removal.
//
// POST   /api/v1/sessions/:id/files         upload one or more PDFs (field "files")
// DELETE /api/v1/sessions/:id/files/:index  remove a file by position
package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/middleware"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/models"
)

// multipartMemory is how much of a form is buffered in memory before
// gin spills file parts to temp files.
const multipartMemory = 32 << 20

// UploadFiles extracts text from the uploaded files and generates notes.
// Processing is synchronous: the response carries the new notes.
func (h *Handler) UploadFiles(c *gin.Context) {
	s := middleware.GetSession(c)

	// Limit request body size
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadSize)

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		badRequest(c, fmt.Sprintf("Upload PDF files with the field name 'files'. Max total size: %dMB.", h.MaxUploadSize>>20))
		return
	}
	headers := c.Request.MultipartForm.File["files"]
	if len(headers) == 0 {
		badRequest(c, "No files provided. Upload PDF files with the field name 'files'.")
		return
	}

	files := make([]models.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			badRequest(c, fmt.Sprintf("Failed to read uploaded file %q", fh.Filename))
			return
		}
		files = append(files, models.UploadedFile{Name: fh.Filename, Size: fh.Size, Content: data})
	}

	res, err := h.Study.Upload(c.Request.Context(), s, files)
	if err != nil {
		respondError(c, "Upload", err)
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		Files:      res.Files,
		NewNotes:   res.NewNotes,
		Notes:      res.Notes,
		AddedChars: res.AddedChars,
	})
}

// readPart reads a whole multipart file into memory. The PDF parser needs
// random access, so streaming is not an option.
func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// RemoveFile drops one file from the session's list.
func (h *Handler) RemoveFile(c *gin.Context) {
	s := middleware.GetSession(c)

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "File index must be an integer")
		return
	}

	files, err := h.Study.RemoveFile(s, index)
	if err != nil {
		respondError(c, "Remove file", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}
