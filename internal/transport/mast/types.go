package mast

import "encoding/json"

// Envelope statuses reported by the invoke API.
const (
	statusComplete  = "COMPLETE"
	statusExecuting = "EXECUTING"
	statusError     = "ERROR"
)

// invokeRequest is the JSON document posted in the "request" form field.
type invokeRequest struct {
	Service           string `json:"service"`
	Params            any    `json:"params"`
	Format            string `json:"format"`
	PageSize          int    `json:"pagesize,omitempty"`
	Page              int    `json:"page,omitempty"`
	RemoveNullColumns bool   `json:"removenullcolumns,omitempty"`
}

type lookupParams struct {
	Input  string `json:"input"`
	Format string `json:"format"`
}

type filteredParams struct {
	Columns  string       `json:"columns"`
	Filters  []wireFilter `json:"filters"`
	Position string       `json:"position,omitempty"`
}

type wireFilter struct {
	ParamName string `json:"paramName"`
	Values    []any  `json:"values"`
}

type wireRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// envelope carries the fields shared by every invoke response.
type envelope struct {
	Status string `json:"status"`
	Msg    string `json:"msg"`
}

type tableResponse struct {
	envelope
	Data   []map[string]any `json:"data"`
	Fields []wireField      `json:"fields"`
	Paging *wirePaging      `json:"paging"`
}

type wireField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type wirePaging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	PagesFiltered int `json:"pagesFiltered"`
	Rows          int `json:"rows"`
	RowsFiltered  int `json:"rowsFiltered"`
	RowsTotal     int `json:"rowsTotal"`
}

type lookupResponse struct {
	envelope
	// Pointer distinguishes an absent key (malformed) from an empty list (not resolved).
	ResolvedCoordinate *[]lookupCandidate `json:"resolvedCoordinate"`
}

type lookupCandidate struct {
	CanonicalName string      `json:"canonicalName"`
	RA            json.Number `json:"ra"`
	Decl          json.Number `json:"decl"`
	Resolver      string      `json:"resolver"`
	ObjectType    string      `json:"objectType"`
	SearchString  string      `json:"searchString"`
}
