// ABOUTME: Admin document upload as a streamed multipart request
// ABOUTME: Fields are "file" and "contextName", matching the backend form

package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// UploadDocument streams a file to /documents/upload.
func (c *Client) UploadDocument(ctx context.Context, filename string, content io.Reader, contextName string) (*UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(mw, filename, content, contextName)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/documents/upload", nil), pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result UploadResult
	if err := c.do(c.authed, req, &result); err != nil {
		pr.Close()
		return nil, err
	}
	return &result, nil
}

func writeUploadForm(mw *multipart.Writer, filename string, content io.Reader, contextName string) error {
	if err := mw.WriteField("contextName", contextName); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, content)
	return err
}
