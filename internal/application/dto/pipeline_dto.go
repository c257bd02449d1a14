package dto

import "github.com/jhoicas/leadflow-api/internal/domain/pipeline"

// MoveRequest mover un elemento a otra etapa del tablero.
type MoveRequest struct {
	ID          string `json:"id" validate:"required"`
	TargetStage string `json:"target_stage" validate:"required"`
	RowVersion  int    `json:"row_version"`
}

// MoveResponse changed=false si el elemento ya estaba en la etapa.
type MoveResponse struct {
	Changed bool `json:"changed"`
}

// BucketResponse una columna del tablero.
type BucketResponse[T any] struct {
	StageID   string `json:"stage_id"`
	StageName string `json:"stage_name"`
	Count     int    `json:"count"`
	Items     []T    `json:"items"`
}

// BucketsFrom mapea las columnas con la función de cada tipo.
func BucketsFrom[E any, T any](in []pipeline.Bucket[E], conv func(E) T) []BucketResponse[T] {
	out := make([]BucketResponse[T], 0, len(in))
	for _, b := range in {
		items := make([]T, 0, len(b.Items))
		for _, it := range b.Items {
			items = append(items, conv(it))
		}
		out = append(out, BucketResponse[T]{StageID: b.StageID, StageName: b.StageName, Count: len(items), Items: items})
	}
	return out
}
