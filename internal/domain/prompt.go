package domain

import (
	"strings"
	"unicode/utf8"
)

// maxFileNameBytes leaves room for the ".png" suffix under the common 255 byte limit
const maxFileNameBytes = 250

// ImageExtension is appended to every generated file name
const ImageExtension = ".png"

// ValidatePrompt rejects prompts that are empty or that cannot name a single file
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	if prompt == "." || prompt == ".." || strings.ContainsAny(prompt, "/\\\x00") {
		return ErrInvalidPrompt
	}
	return nil
}

// FileNameForPrompt returns the output file name for a prompt.
// The prompt is used verbatim unless it is too long for a file name.
func FileNameForPrompt(prompt string) string {
	return truncateBytes(prompt, maxFileNameBytes) + ImageExtension
}

// truncateBytes cuts s to at most n bytes without splitting a UTF-8 character
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}

	var end int
	for end < len(s) {
		_, size := utf8.DecodeRuneInString(s[end:])
		if end+size > n {
			break
		}
		end += size
	}

	return s[:end]
}
