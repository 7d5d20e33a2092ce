// Package chunkstore persists structurized chunks as a JSON array of
// {page_content, metadata} records and reads them back with defaults for
// missing fields.
package chunkstore

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// Policy types assigned by ExtractPolicyType.
const (
	PolicyFiscalReward = "财政奖励"
	PolicyMarketAccess = "市场准入"
	PolicyFairReview   = "公平竞争审查"
	PolicyUserInput    = "用户输入内容"
)

const inputTimeLayout = "2006-01-02 15:04:05"

type wireMetadata struct {
	FileName           *string `json:"file_name"`
	FilePath           *string `json:"file_path"`
	ParentChapterTitle *string `json:"parent_chapter_title"`
	ParentChapterID    int     `json:"parent_chapter_id"`
	MinChunkID         int     `json:"min_chunk_id"`
	DocumentType       string  `json:"document_type"`
	Authority          string  `json:"authority"`
	PolicyType         *string `json:"policy_type"`
	InputTime          string  `json:"input_time"`
}

type wireChunk struct {
	PageContent string        `json:"page_content"`
	Metadata    *wireMetadata `json:"metadata"`
}

// Marshal renders chunks as an indented JSON array without HTML escaping.
func Marshal(chunks []review.Chunk) ([]byte, error) {
	if chunks == nil {
		chunks = []review.Chunk{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(chunks); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "chunkstore: encode failed")
	}
	return buf.Bytes(), nil
}

// Save writes chunks to path, creating parent directories as needed.
func Save(path string, chunks []review.Chunk) error {
	data, err := Marshal(chunks)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "chunkstore: create directory").WithDetail(dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "chunkstore: write failed").WithDetail(path)
	}
	return nil
}

// Load reads a chunk store file. A missing file is a not-found error and
// malformed JSON is an invalid-store error.
func Load(path string) ([]review.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(err, errors.ErrCodeChunkStoreNotFound, "chunkstore: file does not exist").WithDetail(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDocumentUnreadable, "chunkstore: read failed").WithDetail(path)
	}
	chunks, err := Unmarshal(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "chunkstore: load failed").WithDetail(path)
	}
	return chunks, nil
}

// Unmarshal decodes a chunk store document. Absent file_name, file_path,
// parent_chapter_title and policy_type take their sentinel values.
func Unmarshal(data []byte) ([]review.Chunk, error) {
	var raw []wireChunk
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeChunkStoreInvalid, "chunkstore: malformed JSON")
	}
	out := make([]review.Chunk, len(raw))
	for i, rc := range raw {
		m := rc.Metadata
		if m == nil {
			m = &wireMetadata{}
		}
		out[i] = review.Chunk{
			Content: rc.PageContent,
			Metadata: review.ChunkMetadata{
				FileName:           orDefault(m.FileName, review.UnknownFile),
				FilePath:           orDefault(m.FilePath, review.UnknownPath),
				ParentChapterTitle: orDefault(m.ParentChapterTitle, review.UnknownChapter),
				ParentChapterID:    m.ParentChapterID,
				MinChunkID:         m.MinChunkID,
				DocumentType:       m.DocumentType,
				Authority:          m.Authority,
				PolicyType:         orDefault(m.PolicyType, review.OtherPolicy),
				InputTime:          m.InputTime,
			},
		}
	}
	return out, nil
}

func orDefault(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

// ExtractPolicyType classifies text by keyword, checking fiscal rewards,
// then market access, then fair competition review.
func ExtractPolicyType(text string) string {
	switch {
	case strings.Contains(text, "奖励") || strings.Contains(text, "补贴"):
		return PolicyFiscalReward
	case strings.Contains(text, "准入") || strings.Contains(text, "门槛"):
		return PolicyMarketAccess
	case strings.Contains(text, "竞争") || strings.Contains(text, "审查"):
		return PolicyFairReview
	default:
		return PolicyUserInput
	}
}

// UserInputChunk wraps free text typed by a user as a single chunk.
func UserInputChunk(text string, now time.Time) review.Chunk {
	return review.Chunk{
		Content: text,
		Metadata: review.ChunkMetadata{
			FileName:           review.UserInputFile,
			FilePath:           review.UserInputPath,
			ParentChapterTitle: review.UserInputChapter,
			PolicyType:         ExtractPolicyType(text),
			InputTime:          now.Format(inputTimeLayout),
		},
	}
}

//Personal.AI order the ending
