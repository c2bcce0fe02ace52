package export

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"

	"research-backend/internal/domain"
)

// HTML renders the Markdown report and converts it with goldmark.
func HTML(res *domain.Result) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(res)), &buf); err != nil {
		return "", fmt.Errorf("convert report to html: %w", err)
	}
	return buf.String(), nil
}
