package entity

import "time"

// Document metadatos de un archivo en el blob store. Las versiones anteriores
// viven en VersionHistory, no como filas separadas.
type Document struct {
	ID             string
	EntityType     string
	EntityID       string
	Name           string
	ContentType    string
	Path           string
	SizeBytes      int64
	Version        int
	VersionHistory []DocumentVersion
	UploadedBy     string
	RowVersion     int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DocumentVersion snapshot de una versión anterior.
type DocumentVersion struct {
	Version    int       `json:"version"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploadedAt"`
	SizeBytes  int64     `json:"size"`
}

// Paths devuelve todas las rutas del documento (actual + historial).
func (d *Document) Paths() []string {
	paths := make([]string, 0, len(d.VersionHistory)+1)
	for _, v := range d.VersionHistory {
		paths = append(paths, v.Path)
	}
	return append(paths, d.Path)
}
