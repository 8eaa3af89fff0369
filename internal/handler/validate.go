package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// requestValidator validates decoded payloads and translates the first
// failure into a human-readable message.
type requestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newRequestValidator() *requestValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, translator)

	return &requestValidator{
		validate:   validate,
		translator: translator,
	}
}

// decodeAndValidate decodes the JSON body into dst and validates it.
// On failure it writes the 400 response itself and returns false.
func (v *requestValidator) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if err := v.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			writeMessage(w, http.StatusBadRequest, validationErrors[0].Translate(v.translator))
			return false
		}
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return false
	}

	return true
}
