package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"blogapi/internal/storage"
)

// MediaFile streams an image stored by the object-store media provider.
// Keys are random, so responses may be cached forever.
func MediaFile(store storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := strings.TrimPrefix(c.Params("*"), "/")
		if key == "" || strings.Contains(key, "..") {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
		}
		body, info, err := store.Get(c.UserContext(), key)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
			}
			return writeInternal(c, "INTERNAL_ERROR", "internal server error", err)
		}
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
		return c.SendStream(body, int(info.Size))
	}
}
