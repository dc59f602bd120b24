package ingestion

import "errors"

// ErrNoExtractableText はドキュメントから有効なテキストが得られない場合のエラー
var ErrNoExtractableText = errors.New("no extractable text")
