package storage

import (
	"mime"
	"net/url"
	"path"
	"strings"

	"voicehost/internal/domain"
)

func joinURL(base, key string) string {
	key = strings.TrimLeft(key, "/")
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}

func contentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".wav":
		return domain.AudioContentType
	case "":
		return "application/octet-stream"
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
