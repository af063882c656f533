package web

import (
	"fmt"
	"net/http"
	"strconv"
)

// ParamInt extracts a path parameter by key and parses it as an int.
func ParamInt(r *http.Request, key string) (int, error) {
	val := r.PathValue(key)
	if val == "" {
		return 0, fmt.Errorf("path param[%s] not found", key)
	}

	v, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("path param[%s] must be integer: %w", key, err)
	}

	return v, nil
}

// QueryIntDefault extracts a query parameter by key and parses it as an
// int, returning def when the parameter is absent.
func QueryIntDefault(r *http.Request, key string, def int) (int, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return def, nil
	}

	v, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("query param[%s] must be integer: %w", key, err)
	}

	return v, nil
}
