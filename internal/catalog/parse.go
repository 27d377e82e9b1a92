package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/juju/gojsonschema"
)

// gameSchema describes one item of the remote catalog's "games" array.
const gameSchema = `{
  "type": "object",
  "required": ["id", "title", "platform", "background_image", "navigation_icon", "download_link"],
  "properties": {
    "id":          {"type": "integer", "minimum": 0, "maximum": 255},
    "title":       {"type": "string"},
    "subtitle":    {"type": "string"},
    "description": {"type": "string"},
    "version":     {"type": "string"},
    "weight":      {"type": "integer"},
    "platform":    {"type": "array", "items": {"type": "string"}},
    "tags":        {"type": "array", "items": {"type": "string"}},
    "background_image": {"$ref": "#/definitions/link"},
    "navigation_icon":  {"$ref": "#/definitions/link"},
    "download_link": {
      "type": "object",
      "required": ["link", "need_extract", "strip_top_level_folder", "path_to_executable"],
      "properties": {
        "link":                   {"$ref": "#/definitions/link"},
        "need_extract":           {"type": "boolean"},
        "strip_top_level_folder": {"type": "boolean"},
        "path_to_executable":     {"type": "string"}
      }
    }
  },
  "definitions": {
    "link": {
      "type": "object",
      "required": ["url", "name", "revision"],
      "properties": {
        "url":        {"type": "string"},
        "name":       {"type": "string"},
        "revision":   {"type": "integer", "minimum": 0},
        "local_path": {"type": "string"}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(gameSchema))
	})
	return compiledSchema, schemaErr
}

// RemoteDocument is the top-level remote catalog, with each game kept raw so a
// single malformed record can be rejected without losing the others.
type RemoteDocument struct {
	Games []json.RawMessage `json:"games"`
}

// ParseRemoteDocument decodes the outer {"games": [...]} envelope.
func ParseRemoteDocument(data []byte) (RemoteDocument, error) {
	var doc RemoteDocument
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return doc, &SchemaError{Problems: []string{"catalog document must be a JSON object"}}
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return doc, &SchemaError{Problems: []string{fmt.Sprintf("decoding catalog: %v", err)}}
	}
	raw, ok := probe["games"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return doc, &SchemaError{Problems: []string{"games: array is required"}}
	}
	if err := json.Unmarshal(raw, &doc.Games); err != nil {
		return doc, &SchemaError{Problems: []string{fmt.Sprintf("games: %v", err)}}
	}
	return doc, nil
}

type remoteGame struct {
	ID              uint8    `json:"id"`
	Title           string   `json:"title"`
	Subtitle        string   `json:"subtitle"`
	Description     string   `json:"description"`
	BackgroundImage Link     `json:"background_image"`
	NavigationIcon  Link     `json:"navigation_icon"`
	DownloadLink    Archive  `json:"download_link"`
	Version         string   `json:"version"`
	Platforms       []string `json:"platform"`
	Tags            []string `json:"tags"`
	Weight          int      `json:"weight"`
}

// ParseRemoteGame validates one remote record against the game schema and
// decodes it. Every violation is reported in a single *SchemaError.
// local_path values in the remote document are ignored.
func ParseRemoteGame(raw json.RawMessage) (Game, error) {
	schema, err := loadSchema()
	if err != nil {
		return Game{}, fmt.Errorf("compiling game schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(string(raw)))
	if err != nil {
		return Game{}, &SchemaError{Problems: []string{fmt.Sprintf("decoding record: %v", err)}}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			problems = append(problems, re.String())
		}
		return Game{}, &SchemaError{Problems: problems}
	}

	var rg remoteGame
	if err := json.Unmarshal(raw, &rg); err != nil {
		return Game{}, &SchemaError{Problems: []string{err.Error()}}
	}

	g := Game{
		ID:              rg.ID,
		Title:           rg.Title,
		Subtitle:        rg.Subtitle,
		Description:     rg.Description,
		BackgroundImage: rg.BackgroundImage,
		NavigationIcon:  rg.NavigationIcon,
		Archive:         rg.DownloadLink,
		Version:         rg.Version,
		Platforms:       nonNil(rg.Platforms),
		Tags:            nonNil(rg.Tags),
		Weight:          rg.Weight,
	}
	g.BackgroundImage.LocalPath = ""
	g.NavigationIcon.LocalPath = ""
	g.Archive.Link.LocalPath = ""
	g.Archive.NeedUpdate = false
	return g, nil
}

// MarshalList encodes games as a JSON array.
func MarshalList(games []Game) ([]byte, error) {
	if games == nil {
		games = []Game{}
	}
	data, err := json.Marshal(games)
	if err != nil {
		return nil, fmt.Errorf("encoding game list: %w", err)
	}
	return data, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
