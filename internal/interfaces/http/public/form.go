package public

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/sngm3741/storefinder/internal/interfaces/http/common"
	publicapp "github.com/sngm3741/storefinder/internal/public/application"
	"github.com/sngm3741/storefinder/internal/public/domain"
)

// storeForm is a parsed store submission. close releases the photo part.
type storeForm struct {
	input publicapp.StoreInput
	photo *publicapp.PhotoUpload
	file  multipart.File
}

func (f *storeForm) close() {
	if f.file != nil {
		_ = f.file.Close()
	}
}

// parseStoreForm reads a multipart or urlencoded store form.
// Coordinates are accepted as location[coordinates][0|1] or lng/lat.
func parseStoreForm(w http.ResponseWriter, r *http.Request) (*storeForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, common.MaxUploadBytes)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(common.MaxFormMemory); err != nil {
			return nil, domain.Validationf("invalid multipart form: %v", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, domain.Validationf("invalid form: %v", err)
	}

	lng, lngOK := common.ParseFloat(firstValue(r, "location[coordinates][0]", "lng"))
	lat, latOK := common.ParseFloat(firstValue(r, "location[coordinates][1]", "lat"))
	if !lngOK || !latOK {
		return nil, domain.Validationf("you must supply coordinates")
	}

	tags := r.Form["tags"]
	if len(tags) == 1 && strings.Contains(tags[0], ",") {
		tags = strings.Split(tags[0], ",")
	}

	form := &storeForm{
		input: publicapp.StoreInput{
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
			Tags:        tags,
			Address:     firstValue(r, "location[address]", "address"),
			Lng:         lng,
			Lat:         lat,
		},
	}

	if r.MultipartForm == nil {
		return form, nil
	}
	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}
	if err != nil {
		return nil, domain.Validationf("invalid photo: %v", err)
	}
	if header.Size == 0 {
		_ = file.Close()
		return form, nil
	}
	form.file = file
	form.photo = &publicapp.PhotoUpload{
		Data:     file,
		MimeType: header.Header.Get("Content-Type"),
	}
	return form, nil
}

func firstValue(r *http.Request, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(r.FormValue(key)); v != "" {
			return v
		}
	}
	return ""
}
