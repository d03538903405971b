package workspace

import (
	"encoding/json"
	"fmt"

	"github.com/dbxsync/dbx-sync/internal/models"
)

// nodeJSON is the serialized form of a node, as passed in command
// arguments between the presentation layer and the core.
type nodeJSON struct {
	Path       string `json:"path"`
	ObjectType string `json:"object_type"`
	ObjectID   int64  `json:"object_id,omitempty"`
	Language   string `json:"language,omitempty"`
	Source     string `json:"source,omitempty"`
}

// MarshalNode serializes n.
func MarshalNode(n Node) ([]byte, error) {
	v := nodeJSON{Path: n.Path(), ObjectType: string(n.Type()), ObjectID: n.ID()}
	switch t := n.(type) {
	case *Notebook:
		v.Language = string(t.language)
		v.Source = t.source.String()
	case *Directory:
		v.Source = t.source.String()
	}
	return json.Marshal(v)
}

// Rehydrate rebuilds a node from its serialized form. A missing object_type
// is a directory.
func (e *Env) Rehydrate(data []byte, parent Node) (Node, error) {
	var v nodeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode node: %w", err)
	}
	if v.Path == "" {
		return nil, fmt.Errorf("failed to decode node: path is required")
	}
	source, err := ParseSource(v.Source)
	if err != nil {
		return nil, err
	}

	info := models.ObjectInfo{Path: v.Path, ObjectType: v.ObjectType, ObjectID: v.ObjectID, Language: v.Language}
	if source == Online {
		return e.NewNode(info, parent)
	}

	switch ParseObjectType(v.ObjectType) {
	case TypeNotebook:
		lang, err := ParseLanguage(v.Language)
		if err != nil {
			return nil, err
		}
		return e.NewNotebook(v.Path, v.ObjectID, lang, Local, parent), nil
	case TypeDirectory, TypeRepo:
		d := e.newDirectory(CleanRemotePath(v.Path), ParseObjectType(v.ObjectType), v.ObjectID, Local, parent)
		return d, nil
	default:
		return e.NewNode(info, parent)
	}
}
