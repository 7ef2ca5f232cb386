package diary

import (
	"encoding/json"
	"mime/multipart"
	"strings"

	"backend-milestomemories/internal/shared/apperr"
	"backend-milestomemories/internal/shared/validation"
	"backend-milestomemories/internal/storage"

	"github.com/gofiber/fiber/v2"
)

const MaxPhotos = 10

var errTooManyFiles = apperr.Validation("Too many files. Maximum is 10.")

// RegisterRoutes mounts the diary API; r is usually the /api group.
func RegisterRoutes(r fiber.Router, store *Store, disk *storage.Disk) {
	h := &handler{store: store, disk: disk}

	r.Get("/entries", func(c *fiber.Ctx) error {
		return c.JSON(store.List())
	})
	r.Get("/entries/:id", func(c *fiber.Ctx) error {
		e, err := store.Get(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(e)
	})
	r.Post("/entries", h.create)
	r.Put("/entries/:id", h.update)
	r.Delete("/entries/:id/photos", h.deletePhoto)
	r.Delete("/entries/:id", func(c *fiber.Ctx) error {
		photos, err := store.Delete(c.Params("id"))
		if err != nil {
			return err
		}
		h.removeFiles(photos)
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/entries/:id/comments", func(c *fiber.Ctx) error {
		var req CommentRequest
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("Author and text are required")
		}
		req.Author, req.Text = strings.TrimSpace(req.Author), strings.TrimSpace(req.Text)
		if err := validation.Check(req, "Author and text are required"); err != nil {
			return err
		}
		comment, err := store.AddComment(c.Params("id"), req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	})
	r.Delete("/entries/:entryId/comments/:commentId", func(c *fiber.Ctx) error {
		if err := store.DeleteComment(c.Params("entryId"), c.Params("commentId")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/favorites", func(c *fiber.Ctx) error {
		return c.JSON(store.Favorites())
	})
	r.Post("/favorites/:id", func(c *fiber.Ctx) error {
		state, err := store.ToggleFavorite(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(state)
	})

	r.Post("/newsletter", func(c *fiber.Ctx) error {
		var req SubscribeRequest
		_ = c.BodyParser(&req)
		if err := validation.Check(req, "Valid email is required"); err != nil {
			return err
		}
		if err := store.Subscribe(req.Email); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Successfully subscribed to newsletter!"})
	})
	r.Get("/newsletter/count", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"count": store.SubscriberCount()})
	})
}

type handler struct {
	store *Store
	disk  *storage.Disk
}

func (h *handler) create(c *fiber.Ctx) error {
	form, files, err := readForm(c)
	if err != nil {
		return err
	}
	required := newEntry{Title: deref(form.Title), Location: deref(form.Location), Date: deref(form.Date)}
	if err := validation.Check(required, "Title, location, and date are required"); err != nil {
		return err
	}
	photos, err := h.saveAll(c, files)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(h.store.Create(form, photos))
}

func (h *handler) update(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.store.Get(id); err != nil {
		return err
	}
	form, files, err := readForm(c)
	if err != nil {
		return err
	}

	// A malformed existingPhotos list keeps the current photos.
	var keep []string
	if form.ExistingPhotos != nil {
		if err := json.Unmarshal([]byte(*form.ExistingPhotos), &keep); err != nil {
			keep = nil
		} else if keep == nil {
			keep = []string{}
		}
	}

	added, err := h.saveAll(c, files)
	if err != nil {
		return err
	}
	entry, dropped, err := h.store.Update(id, form, keep, added)
	if err != nil {
		h.removeFiles(added)
		return err
	}
	h.removeFiles(dropped)
	return c.JSON(entry)
}

func (h *handler) deletePhoto(c *fiber.Ctx) error {
	var body struct {
		PhotoURL string `json:"photoUrl"`
	}
	_ = c.BodyParser(&body)
	entry, removed, err := h.store.RemovePhoto(c.Params("id"), body.PhotoURL)
	if err != nil {
		return err
	}
	if removed {
		h.removeFiles([]string{body.PhotoURL})
	}
	return c.JSON(entry)
}

// saveAll checks every file before writing any, and cleans up if a write
// fails part way.
func (h *handler) saveAll(c *fiber.Ctx, files []*multipart.FileHeader) ([]string, error) {
	if len(files) > MaxPhotos {
		return nil, errTooManyFiles
	}
	for _, fh := range files {
		if err := h.disk.Check(fh); err != nil {
			return nil, err
		}
	}
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := h.disk.Save(c, fh)
		if err != nil {
			h.removeFiles(urls)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (h *handler) removeFiles(urls []string) {
	for _, url := range urls {
		h.disk.Remove(url)
	}
}

// readForm accepts multipart (fields plus "photos" files) or a JSON body.
func readForm(c *fiber.Ctx) (EntryForm, []*multipart.FileHeader, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		mf, err := c.MultipartForm()
		if err != nil {
			return EntryForm{}, nil, apperr.Validation("Invalid multipart form")
		}
		return formFromValues(mf.Value), mf.File["photos"], nil
	}
	var form EntryForm
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&form); err != nil {
			return EntryForm{}, nil, apperr.Validation("Invalid request body")
		}
	}
	return form, nil, nil
}

func formFromValues(values map[string][]string) EntryForm {
	field := func(name string) *string {
		if v, ok := values[name]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}
	return EntryForm{
		Title:          field("title"),
		Location:       field("location"),
		Date:           field("date"),
		Description:    field("description"),
		Mood:           field("mood"),
		ExistingPhotos: field("existingPhotos"),
	}
}
