package servehttp

import (
	"claimflow/domain"
	"claimflow/domain/engine"
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"
)

// extractUploadedFiles reads a multipart submission: the "formData"
// value carries the form state as JSON, "notes" and "decision" are plain
// values, and every file part becomes an upload keyed by its field name.
func extractUploadedFiles(c *gin.Context, formData *domain.JSONMap, notes *string, decision **bool) ([]engine.UploadedFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	if values := form.Value["formData"]; len(values) > 0 && values[0] != "" {
		if err := json.Unmarshal([]byte(values[0]), formData); err != nil {
			return nil, err
		}
	}
	if values := form.Value["notes"]; len(values) > 0 {
		*notes = values[0]
	}
	if values := form.Value["decision"]; len(values) > 0 && values[0] != "" {
		d, err := strconv.ParseBool(values[0])
		if err != nil {
			return nil, err
		}
		*decision = &d
	}

	files := []engine.UploadedFile{}
	for fieldName, headers := range form.File {
		for _, header := range headers {
			content, err := header.Open()
			if err != nil {
				return nil, err
			}
			files = append(files, engine.UploadedFile{
				FieldName:   fieldName,
				FileName:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Content:     content,
			})
		}
	}
	return files, nil
}
