package convert

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/Vovarama1992/pdf_ziper/internal/pdf"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// DefaultMinPayloadFieldLen — строковые поля короче этого порога
// не считаем кандидатами на PDF-payload
const DefaultMinPayloadFieldLen = 256

type Defaults struct {
	DPI                int
	MinPayloadFieldLen int
}

func (d Defaults) normalized() Defaults {
	if d.DPI <= 0 {
		d.DPI = pdf.DefaultDPI
	}
	if d.MinPayloadFieldLen <= 0 {
		d.MinPayloadFieldLen = DefaultMinPayloadFieldLen
	}
	return d
}

// descriptor — элемент списочного формата запроса
type descriptor struct {
	ID       string `json:"id"`
	DPI      int    `json:"dpi"`
	Content  string `json:"content"`
	Data     string `json:"data"`
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// Normalize превращает тело запроса в упорядоченный список задач.
//
// Принимаем, по приоритету:
//  1. JSON-массив дескрипторов {content|data|url, id?, dpi?}
//  2. JSON-объект с pdf_url
//  3. JSON-объект с длинными строковыми полями (каждое — payload),
//     поля в лексикографическом порядке ключей
//  4. сырую строку — весь body как один payload
//
// Непустой вход никогда не схлопывается молча в ноль задач.
func Normalize(body []byte, d Defaults) ([]Task, error) {
	d = d.normalized()

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &InvalidInputError{Reason: "empty request body"}
	}

	switch trimmed[0] {
	case '[':
		return normalizeList(trimmed, d)
	case '{':
		return normalizeObject(trimmed, d)
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil || len(bytes.TrimSpace([]byte(s))) == 0 {
			return nil, &InvalidInputError{Reason: "body is not a pdf payload, document list or object"}
		}
		return []Task{{ID: "doc_1", Source: Source{Kind: SourceBlob, Blob: s}, DPI: d.DPI}}, nil
	default:
		// не JSON — считаем, что это сам payload
		return []Task{{ID: "doc_1", Source: Source{Kind: SourceBlob, Blob: string(trimmed)}, DPI: d.DPI}}, nil
	}
}

func normalizeList(body []byte, d Defaults) ([]Task, error) {
	var list []descriptor
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &InvalidInputError{Reason: "malformed json array: " + err.Error()}
	}
	if len(list) == 0 {
		return nil, &InvalidInputError{Reason: "empty document list"}
	}

	seen := make(map[string]bool, len(list))
	tasks := make([]Task, 0, len(list))

	for i, entry := range list {
		src, err := entrySource(entry)
		if err != nil {
			return nil, &InvalidInputError{Reason: fmt.Sprintf("entry %d: %v", i+1, err)}
		}

		id := entry.ID
		if id == "" {
			id = fmt.Sprintf("doc_%d", i+1)
		}
		// id обязаны быть уникальны в рамках вызова
		if seen[id] {
			id = id + "_" + uuid.NewString()[:8]
		}
		seen[id] = true

		dpi := entry.DPI
		if dpi <= 0 {
			dpi = d.DPI
		}

		tasks = append(tasks, Task{ID: id, Source: src, DPI: dpi})
	}
	return tasks, nil
}

func entrySource(e descriptor) (Source, error) {
	switch {
	case e.Data != "":
		return Source{Kind: SourceBlob, Blob: e.Data}, nil
	case e.URL != "":
		return Source{Kind: SourceURL, URL: e.URL}, nil
	case e.Content != "":
		// file_name тут только декоративный, содержимое решает
		return Source{Kind: SourceInline, Inline: e.Content}, nil
	default:
		return Source{}, fmt.Errorf("no content, data or url")
	}
}

func normalizeObject(body []byte, d Defaults) ([]Task, error) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, &InvalidInputError{Reason: "malformed json object: " + err.Error()}
	}

	dpi := d.DPI
	if v, ok := obj["dpi"].(float64); ok && v > 0 {
		dpi = int(v)
	}

	if u, ok := obj["pdf_url"].(string); ok && u != "" {
		return []Task{{ID: "doc_1", Source: Source{Kind: SourceURL, URL: u}, DPI: dpi}}, nil
	}

	// собираем строковые поля-кандидаты в детерминированном порядке
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tasks []Task
	for _, k := range keys {
		s, ok := obj[k].(string)
		if !ok {
			continue
		}
		if len(s) < d.MinPayloadFieldLen && k != "content" {
			continue
		}
		if len(bytes.TrimSpace([]byte(s))) == 0 {
			continue
		}
		tasks = append(tasks, Task{
			ID:     fmt.Sprintf("doc_%d", len(tasks)+1),
			Source: Source{Kind: SourceBlob, Blob: s},
			DPI:    dpi,
		})
	}

	if len(tasks) == 0 {
		return nil, &InvalidInputError{Reason: "object has no pdf_url and no payload-sized string fields"}
	}
	return tasks, nil
}
