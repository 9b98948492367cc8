package handlers

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"wedmarket/internal/domain"
	"wedmarket/internal/services"
	"wedmarket/internal/validate"
)

// MaxUploadFiles caps the images accepted in one request.
const MaxUploadFiles = 10

func invalid(field string) error {
	return fmt.Errorf("invalid %s: %w", field, domain.ErrInvalidInput)
}

// productInput reads the product fields shared by admin creation, admin
// update and public requests.
func productInput(c *fiber.Ctx) (services.ProductInput, error) {
	var in services.ProductInput
	var ok bool
	if in.Title, ok = validate.Text(c.FormValue("title"), 200); !ok {
		return in, invalid("title")
	}
	if in.Description, ok = validate.Text(c.FormValue("description"), 4000); !ok {
		return in, invalid("description")
	}
	if in.Price, ok = validate.Price(c.FormValue("price")); !ok {
		return in, invalid("price")
	}
	if in.Governorate, ok = validate.Text(c.FormValue("governorate"), 100); !ok {
		return in, invalid("governorate")
	}
	if in.WhatsApp, ok = validate.Phone(c.FormValue("whatsapp")); !ok {
		return in, invalid("whatsapp")
	}
	if in.Facebook, ok = validate.Link(c.FormValue("facebook")); !ok {
		return in, invalid("facebook")
	}
	in.Instagram = c.FormValue("instagram")
	in.Subcategory = validate.Tags(c.FormValue("subcategory"))
	in.Cities = validate.Tags(c.FormValue("cities"))
	in.Colors = validate.Tags(c.FormValue("colors"))
	return in, nil
}

// uploads reads and checks the "images" parts of a multipart body. A body
// that is not multipart carries no files.
func uploads(c *fiber.Ctx) ([]services.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	headers := form.File["images"]
	if len(headers) > MaxUploadFiles {
		return nil, fmt.Errorf("more than %d images: %w", MaxUploadFiles, domain.ErrInvalidInput)
	}
	out := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		if err := u.Validate(); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func readUpload(fh *multipart.FileHeader) (services.Upload, error) {
	if fh.Size > services.MaxUploadBytes {
		return services.Upload{}, fmt.Errorf("%s: larger than 10MB: %w", fh.Filename, domain.ErrInvalidInput)
	}
	f, err := fh.Open()
	if err != nil {
		return services.Upload{}, fmt.Errorf("%s: %w", fh.Filename, domain.ErrInvalidInput)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, services.MaxUploadBytes+1))
	if err != nil {
		return services.Upload{}, fmt.Errorf("%s: %w", fh.Filename, domain.ErrInvalidInput)
	}
	return services.Upload{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}
