package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const cursorPrefix = "m"

// EncodeToken creates an opaque token that resumes a history listing after mutationID.
// A zero mutationID yields an empty token, meaning there is no next page.
func EncodeToken(mutationID int64) string {
	if mutationID <= 0 {
		return ""
	}
	tokenStr := fmt.Sprintf("%s|%d", cursorPrefix, mutationID)
	return base64.RawURLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeToken parses a token produced by EncodeToken. An empty token starts at the beginning.
func DecodeToken(token string) (int64, error) {
	if token == "" {
		return 0, nil
	}
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 2)
	if len(parts) != 2 || parts[0] != cursorPrefix {
		return 0, fmt.Errorf("invalid pagination token format (split)")
	}
	mutationID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid pagination token format (mutation id parse): %w", err)
	}
	if mutationID <= 0 {
		return 0, fmt.Errorf("invalid pagination token format (mutation id %d)", mutationID)
	}
	return mutationID, nil
}
