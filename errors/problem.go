package errors

import (
	"encoding/json"
	"net/http"
)

const typeBaseURI = "https://secval.ai8future.com/errors/"

var typeURIs = map[int]string{
	http.StatusBadRequest:            typeBaseURI + "payload-rejected",
	http.StatusRequestEntityTooLarge: typeBaseURI + "payload-too-large",
	http.StatusInternalServerError:   typeBaseURI + "internal",
}

var titleMap = map[int]string{
	http.StatusBadRequest:            "Payload Rejected",
	http.StatusRequestEntityTooLarge: "Payload Too Large",
	http.StatusInternalServerError:   "Internal Error",
}

// ProblemDetail represents an RFC 9457 Problem Details object. Extension
// members — including the violation list — are serialized as top-level
// fields per the RFC.
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"-"` // serialized as top-level members
}

// MarshalJSON implements custom serialization to place extension members at
// the top level of the JSON object, as required by RFC 9457.
func (pd ProblemDetail) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"type":   pd.Type,
		"title":  pd.Title,
		"status": pd.Status,
		"detail": pd.Detail,
	}
	if pd.Instance != "" {
		m["instance"] = pd.Instance
	}
	for k, v := range pd.Extensions {
		switch k {
		case "type", "title", "status", "detail", "instance":
			continue // skip reserved RFC 9457 fields
		}
		m[k] = v
	}
	return json.Marshal(m)
}

// ProblemDetail converts this ServiceError into an RFC 9457 ProblemDetail.
// The violation list rides along as a "violations" extension member; its
// snippets are already truncated by the validator, so the problem document
// is safe to log or return to a client without replaying the payload.
func (e *ServiceError) ProblemDetail(instance string) ProblemDetail {
	typeURI, ok := typeURIs[e.HTTPCode]
	if !ok {
		typeURI = typeBaseURI + "unknown"
	}
	if e.typeURI != "" {
		typeURI = e.typeURI
	}
	title, ok := titleMap[e.HTTPCode]
	if !ok {
		title = http.StatusText(e.HTTPCode)
	}
	pd := ProblemDetail{
		Type:     typeURI,
		Title:    title,
		Status:   e.HTTPCode,
		Detail:   e.Message,
		Instance: instance,
	}
	if len(e.Violations) > 0 {
		pd.Extensions = map[string]any{"violations": e.Violations}
	}
	return pd
}
