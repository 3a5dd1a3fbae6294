package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/entity"
)

// ParseMode tells how a callback body was decoded.
type ParseMode string

const (
	ParseModeJSON          ParseMode = "json"
	ParseModeForm          ParseMode = "form"
	ParseModeMultipart     ParseMode = "multipart"
	ParseModeFallbackJSON  ParseMode = "fallback_json"
	ParseModeFallbackEmpty ParseMode = "fallback_empty"
)

const (
	maxCallbackBody      = 1 << 20
	maxCallbackMultipart = 1 << 20
)

// ParseCallback extracts the gateway fields from a callback request of any
// supported content type. It never fails: a body that cannot be decoded
// yields an empty payload.
func ParseCallback(r *http.Request) (entity.CallbackPayload, ParseMode) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxCallbackBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		fields, err := decodeJSONFields(r.Body)
		if err != nil {
			return payloadFromFields(nil), ParseModeFallbackEmpty
		}

		return payloadFromFields(fields), ParseModeJSON
	case "application/x-www-form-urlencoded":
		err := r.ParseForm()
		if err != nil {
			return payloadFromFields(nil), ParseModeFallbackEmpty
		}

		return payloadFromFields(firstValues(r.PostForm)), ParseModeForm
	case "multipart/form-data":
		err := r.ParseMultipartForm(maxCallbackMultipart)
		if err != nil {
			return payloadFromFields(nil), ParseModeFallbackEmpty
		}

		return payloadFromFields(firstValues(r.MultipartForm.Value)), ParseModeMultipart
	}

	fields, err := decodeJSONFields(r.Body)
	if err != nil {
		return payloadFromFields(nil), ParseModeFallbackEmpty
	}

	return payloadFromFields(fields), ParseModeFallbackJSON
}

func decodeJSONFields(body io.Reader) (map[string]string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var raw map[string]any

	err = dec.Decode(&raw)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(raw))

	for k, v := range raw {
		switch v := v.(type) {
		case string:
			fields[k] = v
		case json.Number:
			// Keep the literal so "00" style codes sent as numbers stay comparable.
			fields[k] = v.String()
		case bool:
			fields[k] = fmt.Sprint(v)
		case nil:
		default:
			nested, err := json.Marshal(v)
			if err == nil {
				fields[k] = string(nested)
			}
		}
	}

	return fields, nil
}

func firstValues(values url.Values) map[string]string {
	fields := make(map[string]string, len(values))

	for k, v := range values {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}

	return fields
}

func payloadFromFields(fields map[string]string) entity.CallbackPayload {
	if fields == nil {
		fields = map[string]string{}
	}

	return entity.CallbackPayload{
		TranID: fields["tran_id"],
		Status: fields["status"],
		APV:    fields["apv"],
		Hash:   fields["hash"],
		Fields: fields,
	}
}
