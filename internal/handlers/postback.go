package handlers

import (
	"net/url"
	"strings"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
)

// ParsePostbackData splits postback data into the action name and the
// remaining parameters. Data that is not a valid query string is read with
// the legacy key=value&key2=value2 rules.
func ParsePostbackData(data string) (string, domain.Params) {
	values, err := url.ParseQuery(data)
	if err != nil {
		values = parseLegacyPostback(data)
	}

	params := make(url.Values, len(values))
	for key, vs := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		for _, v := range vs {
			params.Add(key, strings.TrimSpace(v))
		}
	}

	name := params.Get("action")
	params.Del("action")
	return name, domain.Params(params)
}

func parseLegacyPostback(data string) url.Values {
	values := url.Values{}
	for _, pair := range strings.Split(data, "&") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		values.Add(unescapeLenient(key), unescapeLenient(value))
	}
	return values
}

// unescapeLenient decodes what it can and keeps malformed escapes as typed
func unescapeLenient(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}
