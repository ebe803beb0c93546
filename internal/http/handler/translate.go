package handler

import (
	"github.com/gofiber/fiber/v2"

	"blogapi/internal/service"
)

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate godoc
// @Summary      Translate text
// @Tags         translate
// @Accept       json
// @Produce      json
// @Param        body  body      translateRequest  true  "Text and target language code"
// @Success      200   {object}  translateResponse
// @Failure      400   {object}  errorPayload
// @Failure      500   {object}  errorPayload
// @Router       /api/translate [post]
func Translate(svc service.TranslationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req translateRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		out, err := svc.Translate(c.UserContext(), req.Text, req.TargetLang)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(translateResponse{TranslatedText: out})
	}
}
