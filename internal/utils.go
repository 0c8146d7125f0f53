package internal

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func sanitizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	parts := strings.Split(name, ".")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.Trim(part, " \"")
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}
	if len(clean) == 0 {
		clean = []string{name}
	}
	return pgx.Identifier(clean).Sanitize()
}

func toUUID(obj any) (uuid.UUID, bool) {
	switch v := obj.(type) {
	case uuid.UUID:
		return v, true
	case *uuid.UUID:
		if v == nil {
			return uuid.Nil, false
		}
		return *v, true
	case string:
		data, err := uuid.Parse(v)
		return data, err == nil
	case [16]byte:
		// pgx decodes uuid columns as a raw byte array.
		return uuid.UUID(v), true
	case []byte:
		// 16 bytes is a raw UUID, otherwise treat as text.
		if len(v) == 16 {
			data, err := uuid.FromBytes(v)
			return data, err == nil
		}
		data, err := uuid.Parse(string(v))
		return data, err == nil
	default:
		return uuid.Nil, false
	}
}
