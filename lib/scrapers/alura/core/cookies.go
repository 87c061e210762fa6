package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// the three cookies the platform actually checks. anything else in the
// export is dropped.
const (
	CookieSession    = "SESSION"
	CookieLoginToken = "caelum.login.token"
	CookieUserId     = "alura.userId"
)

var requiredCookieNames = []string{CookieSession, CookieLoginToken, CookieUserId}

// LoadCookies reads a cookie export from disk.
func LoadCookies(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", CookieFileNotFound, path)
	}
	if err != nil {
		return "", fmt.Errorf("cookie file %s: %w", path, err)
	}
	return string(raw), nil
}

// ParseCookies accepts either a Netscape cookie jar (the format browser
// extensions export) or a JSON object/array and reduces it to the
// required name -> value mapping. If any required cookie is missing it
// returns an empty map, callers detect the unauthenticated state when
// the dashboard check fails.
func ParseCookies(raw string) (map[string]string, error) {
	trimmed := strings.TrimSpace(raw)

	var all map[string]string
	var err error
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		all, err = parseJsonCookies(trimmed)
	} else {
		all, err = parseNetscapeCookies(trimmed)
	}
	if err != nil {
		return nil, err
	}

	out := map[string]string{}
	for _, name := range requiredCookieNames {
		value, ok := all[name]
		if !ok {
			return map[string]string{}, nil
		}
		out[name] = value
	}
	return out, nil
}

func parseNetscapeCookies(raw string) (map[string]string, error) {
	cookies := map[string]string{}
	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return nil, fmt.Errorf(
				"%w: line %d has %d tab-separated fields, want 7",
				MalformedCookieFile, i+1, len(fields),
			)
		}
		// domain, flag, path, secure and expiration are ignored, the
		// platform only cares about name/value
		cookies[fields[5]] = fields[6]
	}
	return cookies, nil
}

// jsonCookieValue accepts both a bare string and a {value: ...} object.
type jsonCookieValue struct {
	Value string
}

func (v *jsonCookieValue) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		v.Value = bare
		return nil
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	v.Value = obj.Value
	return nil
}

func parseJsonCookies(raw string) (map[string]string, error) {
	cookies := map[string]string{}

	if strings.HasPrefix(raw, "[") {
		var entries []struct {
			Name  string          `json:"name"`
			Value jsonCookieValue `json:"value"`
		}
		err := json.Unmarshal([]byte(raw), &entries)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", MalformedCookieFile, err)
		}
		for _, e := range entries {
			cookies[e.Name] = e.Value.Value
		}
		return cookies, nil
	}

	var obj map[string]jsonCookieValue
	err := json.Unmarshal([]byte(raw), &obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", MalformedCookieFile, err)
	}
	for name, v := range obj {
		cookies[name] = v.Value
	}
	return cookies, nil
}
