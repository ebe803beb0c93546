package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blogapi/internal/translate"
)

var ErrTranslationFailed = errors.New("translation failed")

// TranslationService relays text to the configured translator.
type TranslationService interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

type translationService struct {
	translator translate.Translator
}

// NewTranslationService constructs a new TranslationService.
func NewTranslationService(t translate.Translator) TranslationService {
	return &translationService{translator: t}
}

func (s *translationService) Translate(ctx context.Context, text, targetLang string) (string, error) {
	var missing []string
	if strings.TrimSpace(text) == "" {
		missing = append(missing, "text")
	}
	if strings.TrimSpace(targetLang) == "" {
		missing = append(missing, "target_lang")
	}
	if len(missing) > 0 {
		return "", &ValidationError{Fields: missing}
	}

	out, err := s.translator.Translate(ctx, text, strings.ToUpper(targetLang))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}
	return out, nil
}
