package document

import (
	cerrdefs "github.com/containerd/errdefs"
)

// NotFoundError файл документа не существует
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return "document not found: " + e.Path
}

func (e *NotFoundError) Unwrap() []error {
	return []error{cerrdefs.ErrNotFound, e.Err}
}

// NotFound помечает ошибку для errdefs.IsNotFound
func (e *NotFoundError) NotFound() {}

// MalformedDocumentError содержимое не разбирается как JSON или YAML
type MalformedDocumentError struct {
	Name string
	Err  error
}

func (e *MalformedDocumentError) Error() string {
	return "malformed document " + e.Name + ": " + e.Err.Error()
}

func (e *MalformedDocumentError) Unwrap() []error {
	return []error{cerrdefs.ErrInvalidArgument, e.Err}
}

// InvalidArgument помечает ошибку для errdefs.IsInvalidArgument
func (e *MalformedDocumentError) InvalidArgument() {}
