package catapi

import (
	"bytes"
	"fmt"

	"github.com/CatGallery/internal/domain"
	"github.com/buger/jsonparser"
)

// DecodeError indicates a response body that is not a list of images.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode cat images: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeImages parses the images/search response body.
// An empty body, "null" and "[]" all decode to an empty slice. Fields other
// than id and url are ignored.
func DecodeImages(data []byte) ([]domain.CatImage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []domain.CatImage{}, nil
	}
	if data[0] != '[' {
		return nil, &DecodeError{Err: fmt.Errorf("expected JSON array, got %q", truncate(data, 32))}
	}
	// The array must be the whole body.
	_, _, end, err := jsonparser.Get(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if end != len(data) {
		return nil, &DecodeError{Err: fmt.Errorf("unexpected content after array: %q", truncate(data[end:], 32))}
	}

	images := make([]domain.CatImage, 0, domain.DefaultPageSize)
	var itemErr error
	_, err = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if itemErr != nil {
			return
		}
		if err != nil {
			itemErr = err
			return
		}
		if dataType != jsonparser.Object {
			itemErr = fmt.Errorf("item at offset %d is %s, want object", offset, dataType)
			return
		}

		id, err := jsonparser.GetString(value, "id")
		if err != nil {
			itemErr = fmt.Errorf("item at offset %d: id: %w", offset, err)
			return
		}
		url, err := jsonparser.GetString(value, "url")
		if err != nil {
			itemErr = fmt.Errorf("item at offset %d: url: %w", offset, err)
			return
		}
		images = append(images, domain.CatImage{ID: id, URL: url})
	})
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if itemErr != nil {
		return nil, &DecodeError{Err: itemErr}
	}
	return images, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
