package util

import "strings"

// ToUserError maps subprocess and pipeline failures to messages safe to
// show in API responses.
func ToUserError(message string) string {
	msg := strings.ToLower(message)

	if strings.Contains(msg, "cancelled") || strings.Contains(msg, "canceled") {
		return "Job cancelled"
	}
	if strings.Contains(msg, "context deadline exceeded") || strings.Contains(msg, "signal: killed") || strings.Contains(msg, "timed out") || strings.Contains(msg, "timeout") {
		return "Processing timed out, try a smaller file"
	}
	if strings.Contains(msg, "interrupted by restart") {
		return "Server restarted while processing, please re-upload"
	}
	if strings.Contains(msg, "no space left") {
		return "Server is out of disk space, try again later"
	}
	if strings.Contains(msg, "invalid data found") || strings.Contains(msg, "moov atom not found") || strings.Contains(msg, "could not find codec") {
		return "File appears corrupted or is not a supported video"
	}
	if strings.Contains(msg, "image: unknown format") || strings.Contains(msg, "invalid jpeg") || strings.Contains(msg, "not a png") || strings.Contains(msg, "invalid format") {
		return "File is not a supported image"
	}
	if strings.Contains(msg, "premature end") || strings.Contains(msg, "unexpected eof") {
		return "Upload was cut off, try again"
	}
	if strings.Contains(msg, "too large") || strings.Contains(msg, "exceeds") {
		return message
	}
	if strings.Contains(msg, "executable file not found") {
		return "A required tool is missing on the server"
	}
	if strings.Contains(msg, "low memory") || strings.Contains(msg, "low disk") || strings.Contains(msg, "too many active") {
		return message
	}
	return "Processing failed"
}
