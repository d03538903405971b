package workspace

import (
	"fmt"
	"strings"
)

// ObjectType is the kind of a workspace object as reported by the API.
type ObjectType string

const (
	TypeNotebook  ObjectType = "NOTEBOOK"
	TypeDirectory ObjectType = "DIRECTORY"
	TypeLibrary   ObjectType = "LIBRARY"
	TypeRepo      ObjectType = "REPO"
	TypeFile      ObjectType = "FILE"
)

// ParseObjectType maps an API object_type to an ObjectType.
// Empty or unknown values are treated as directories.
func ParseObjectType(s string) ObjectType {
	switch t := ObjectType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TypeNotebook, TypeDirectory, TypeLibrary, TypeRepo, TypeFile:
		return t
	default:
		return TypeDirectory
	}
}

// Language is the scripting language of a notebook.
type Language string

const (
	LanguagePython Language = "PYTHON"
	LanguageScala  Language = "SCALA"
	LanguageSQL    Language = "SQL"
	LanguageR      Language = "R"
)

// Languages lists the supported notebook languages in table order.
var Languages = []Language{LanguagePython, LanguageScala, LanguageSQL, LanguageR}

// ParseLanguage is case-insensitive.
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Languages {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown notebook language %q", s)
}

// ExportFormat is the representation used to move a notebook over the wire.
type ExportFormat string

const (
	FormatSource  ExportFormat = "SOURCE"
	FormatJupyter ExportFormat = "JUPYTER"
	FormatDBC     ExportFormat = "DBC"
	FormatHTML    ExportFormat = "HTML"
)

// Source records where a node was discovered.
type Source int

const (
	// Online nodes come from the remote listing.
	Online Source = iota
	// Local nodes were synthesized from a file in the sync folder.
	Local
)

func (s Source) String() string {
	if s == Local {
		return "Local"
	}
	return "Online"
}

// ParseSource accepts "Online" and "Local", case-insensitive. Empty is Online.
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "online":
		return Online, nil
	case "local":
		return Local, nil
	default:
		return Online, fmt.Errorf("unknown source %q", s)
	}
}

// Theme selects an icon set.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// SyncState is derived from the two existence predicates of a notebook.
type SyncState int

const (
	StateNeither SyncState = iota
	StateOnlineOnly
	StateLocalOnly
	StateSynced
)

func (s SyncState) String() string {
	switch s {
	case StateOnlineOnly:
		return "Online only"
	case StateLocalOnly:
		return "Offline only"
	case StateSynced:
		return "Synced"
	default:
		return ""
	}
}

// StateOf computes the sync state from (local, online) existence.
func StateOf(local, online bool) SyncState {
	switch {
	case local && online:
		return StateSynced
	case online:
		return StateOnlineOnly
	case local:
		return StateLocalOnly
	default:
		return StateNeither
	}
}

// Context values drive which actions a presentation layer enables.
const (
	ContextCanSync     = "CAN_SYNC"
	ContextCanDownload = "CAN_DOWNLOAD"
	ContextCanUpload   = "CAN_UPLOAD"
)

// ContextValueOf maps (local, online) existence to a context value.
// Neither existing yields "".
func ContextValueOf(local, online bool) string {
	switch StateOf(local, online) {
	case StateSynced:
		return ContextCanSync
	case StateOnlineOnly:
		return ContextCanDownload
	case StateLocalOnly:
		return ContextCanUpload
	default:
		return ""
	}
}
