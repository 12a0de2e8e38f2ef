package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	voiceIDRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	labelRegexp   = regexp.MustCompile(`^spk(0|[1-9][0-9]*)$`)
	validate      = newValidator()
)

func newValidator() *validator.Validate {
	res := validator.New()
	mustRegister(res, "voiceid", func(fl validator.FieldLevel) bool {
		return IsVoiceID(fl.Field().String())
	})
	mustRegister(res, "speakerlabel", func(fl validator.FieldLevel) bool {
		return IsSpeakerLabel(fl.Field().String())
	})
	return res
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("can't register %s: %v", tag, err))
	}
}

// IsVoiceID checks voice identifier syntax
func IsVoiceID(s string) bool {
	return voiceIDRegexp.MatchString(s)
}

// IsSpeakerLabel checks spk<N> format
func IsSpeakerLabel(s string) bool {
	return labelRegexp.MatchString(s)
}

// SpeakerLabel makes label from a zero based index
func SpeakerLabel(i int) string {
	return "spk" + strconv.Itoa(i)
}

func labelIndex(label string) int {
	res, err := strconv.Atoi(strings.TrimPrefix(label, "spk"))
	if err != nil {
		return -1
	}
	return res
}

func validateStruct(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return &InvalidInputError{Msg: err.Error()}
	}
	return nil
}

func validateVoice(label, voiceID string) error {
	if err := validate.Var(voiceID, "required,voiceid"); err != nil {
		return &InvalidInputError{Msg: fmt.Sprintf("wrong voice id '%s' for %s", voiceID, label)}
	}
	return nil
}
