package ask

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery はクエリが空の場合のエラー
	ErrEmptyQuery = errors.New("query is required")

	// ErrEmptyEmbedding は Embedder が空ベクトルを返した場合のエラー
	ErrEmptyEmbedding = errors.New("empty query embedding")
)

// Stage は失敗したパイプラインの段階
type Stage string

const (
	StageDirectChat Stage = "direct-chat"
	StageEmbed      Stage = "embed"
	StageRetrieve   Stage = "retrieve"
	StageGenerate   Stage = "generate"
)

// StageError はパイプラインの特定段階での失敗を表す
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("ask %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
