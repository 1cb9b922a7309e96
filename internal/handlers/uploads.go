package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
)

// maxUploadBody leaves room for the multipart envelope around the largest
// accepted photo.
const maxUploadBody = 11 << 20

type upload struct {
	asset   services.Asset
	caption string
	file    multipart.File
	form    *multipart.Form
}

func (upload *upload) Close() {
	upload.file.Close()
	upload.form.RemoveAll()
}

// readUpload pulls the "file" part out of a multipart request. It answers
// the request itself when the body is unusable.
func readUpload(w http.ResponseWriter, r *http.Request) (*upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, http.StatusRequestEntityTooLarge, "Dosya boyutu çok büyük")
			return nil, false
		}
		writeFailure(w, http.StatusBadRequest, "Dosya okunamadı")
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		r.MultipartForm.RemoveAll()
		writeFailure(w, http.StatusBadRequest, "Lütfen bir dosya seçin")
		return nil, false
	}

	return &upload{
		asset: services.Asset{
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		},
		caption: r.FormValue("caption"),
		file:    file,
		form:    r.MultipartForm,
	}, true
}
