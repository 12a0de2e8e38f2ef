package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var fileNameRegexp = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

// MakeValidateFileName drops dirs from the name, makes ext lowercase and prefixes it with ID dir
func MakeValidateFileName(ID, fileName string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + fileName))
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	name = fileNameRegexp.ReplaceAllString(strings.ReplaceAll(name, " ", "_"), "")
	if name == "" || name == "." {
		return "", fmt.Errorf("wrong file name '%s'", fileName)
	}
	res := name + strings.ToLower(ext)
	if ID == "" {
		return res, nil
	}
	return ID + "/" + res, nil
}

//SupportVideoExt checks if source video ext is supported
func SupportVideoExt(ext string) bool {
	return ext == ".mp4" || ext == ".mov" || ext == ".mkv" || ext == ".webm" || ext == ".avi"
}

// ParamTrue - returns true if string param indicates true value
func ParamTrue(prm string) bool {
	return strings.ToLower(prm) == "true" || prm == "1"
}
