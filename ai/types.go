package ai

import (
	"path/filepath"
	"strings"
)

// OCRInstruction is sent with every page image.
const OCRInstruction = "Please transcribe all text from this image without modifying it, " +
	"if the image is blank, don't write anything"

// TranscriptionInstruction is sent with audio clips to chat models that
// transcribe through a prompt rather than a dedicated speech endpoint.
const TranscriptionInstruction = "Transcribe this audio verbatim. " +
	"Return only the spoken words, and nothing if there is no speech."

// audioTypes maps audio file extensions to MIME types.
var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
}

// imageTypes maps image file extensions to MIME subtypes.
var imageTypes = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".gif":  "gif",
	".bmp":  "bmp",
	".tif":  "tiff",
	".tiff": "tiff",
	".webp": "webp",
}

// AudioMIMEType returns the MIME type for an audio file name, defaulting to WAV.
func AudioMIMEType(filename string) string {
	if t, ok := audioTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}
	return "audio/wav"
}

// ImageFormat returns the MIME subtype ("png", "jpeg", ...) for an image
// name or URL path, defaulting to png.
func ImageFormat(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if f, ok := imageTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return f
	}
	return "png"
}
