package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"bloommarbella_api/internal/nieuwkoop/business/models"
)

const UnknownTag = "unknown"

var englishKeys = map[string]struct{}{
	"en":             {},
	"en-gb":          {},
	"en_gb":          {},
	"english":        {},
	"description_en": {},
	"value_en":       {},
}

type pair struct {
	key   string
	value json.RawMessage
}

// extractTags разбирает теги поставщика в их исходном порядке.
// Битый тег превращается в заглушку, разбор остальных продолжается.
func extractTags(raw json.RawMessage) (tags []models.Tag) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return []models.Tag{{Code: UnknownTag, Value: UnknownTag}}
	}
	tags = make([]models.Tag, 0, len(elems))
	for _, elem := range elems {
		tags = append(tags, extractTag(elem))
	}
	return tags
}

func extractTag(raw json.RawMessage) (tag models.Tag) {
	defer func() {
		if r := recover(); r != nil {
			tag = models.Tag{Code: UnknownTag, Value: UnknownTag}
		}
	}()

	fields, err := orderedObject(raw)
	if err != nil {
		return models.Tag{Code: UnknownTag, Value: UnknownTag}
	}

	var code string
	var values json.RawMessage
	for _, f := range fields {
		switch strings.ToLower(f.key) {
		case "code", "tagcode", "tag":
			_ = json.Unmarshal(f.value, &code)
		case "values", "value", "descriptions":
			values = f.value
		}
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return models.Tag{Code: UnknownTag, Value: UnknownTag}
	}

	value, err := pickValue(values)
	if err != nil {
		return models.Tag{Code: code, Value: UnknownTag}
	}
	if value == "" {
		value = code
	}
	return models.Tag{Code: code, Value: value}
}

// pickValue выбирает английское значение, иначе первое непустое.
// Поддерживаются строка, объект {"EN": "..."} и массив объектов
// {"Language": "EN", "Value": "..."} или {"Description_EN": "..."}.
func pickValue(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	case '{':
		fields, err := orderedObject(trimmed)
		if err != nil {
			return "", err
		}
		return pickFromPairs(fields), nil
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return "", err
		}
		var candidates []pair
		for _, elem := range elems {
			candidates = append(candidates, localizedPairs(elem)...)
		}
		return pickFromPairs(candidates), nil
	}
	return "", fmt.Errorf("unsupported tag value shape")
}

// localizedPairs приводит элемент массива значений к парам язык/значение.
func localizedPairs(raw json.RawMessage) []pair {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return []pair{{key: "", value: trimmed}}
	}
	fields, err := orderedObject(trimmed)
	if err != nil {
		return nil
	}
	var lang string
	var value json.RawMessage
	for _, f := range fields {
		switch strings.ToLower(f.key) {
		case "language", "lang", "locale":
			_ = json.Unmarshal(f.value, &lang)
		case "value", "description":
			value = f.value
		}
	}
	if value != nil {
		return []pair{{key: lang, value: value}}
	}
	return fields
}

func pickFromPairs(pairs []pair) string {
	first := ""
	for _, p := range pairs {
		var s string
		if err := json.Unmarshal(p.value, &s); err != nil {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := englishKeys[strings.ToLower(p.key)]; ok {
			return s
		}
		if first == "" {
			first = s
		}
	}
	return first
}

// orderedObject читает JSON-объект с сохранением порядка ключей.
func orderedObject(raw json.RawMessage) ([]pair, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object")
	}
	var out []pair
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key")
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		out = append(out, pair{key: key, value: value})
	}
	return out, nil
}
