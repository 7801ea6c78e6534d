package api

import "time"

type ErrorResponse struct {
	Code     int      `json:"code" example:"409"`
	Message  string   `json:"message" example:"Please upload and process PDF documents before starting the chat."`
	Hint     string   `json:"hint,omitempty" example:"Upload documents with POST /sessions/{id}/documents"`
	Warnings []string `json:"warnings,omitempty"`
}

type SessionResponse struct {
	Id              string          `json:"id" example:"0b6f6a52-2f5e-4f7e-9a55-2d6c3f1c2a10"`
	Mode            string          `json:"mode" example:"public"`
	ModeDescription string          `json:"mode_description" example:"free hosted models without a token"`
	State           string          `json:"state" example:"uninitialized"`
	Turns           int             `json:"turns" example:"0"`
	CreatedAt       time.Time       `json:"created_at"`
	LastActive      time.Time       `json:"last_active"`
	Report          *ReportResponse `json:"report,omitempty"`
}

type FileErrorResponse struct {
	DocumentName string `json:"doc_name" example:"scan.pdf"`
	Message      string `json:"message" example:"failed to open pdf"`
}

type ReportResponse struct {
	Documents         []string            `json:"documents"`
	Characters        int                 `json:"characters" example:"1500"`
	Chunks            int                 `json:"chunks" example:"2"`
	Mode              string              `json:"mode" example:"paid"`
	EmbeddingProvider string              `json:"embedding_provider" example:"openai/text-embedding-3-small"`
	GeneratorProvider string              `json:"generator_provider" example:"openai/gpt-3.5-turbo"`
	Warnings          []string            `json:"warnings,omitempty"`
	FileErrors        []FileErrorResponse `json:"file_errors,omitempty"`
	Notes             []string            `json:"notes,omitempty"`
	BuiltAt           time.Time           `json:"built_at"`
}

type ProcessResponse struct {
	Message string         `json:"message" example:"Processed 2 document(s) into 2 chunks."`
	Report  ReportResponse `json:"report"`
}

type SourceResponse struct {
	ChunkIndex int     `json:"chunk_order" example:"3"`
	Score      float32 `json:"score" example:"0.82"`
	Excerpt    string  `json:"excerpt"`
}

type AnswerResponse struct {
	Question string           `json:"question"`
	Answer   string           `json:"answer"`
	Provider string           `json:"provider" example:"huggingface/google/flan-t5-large"`
	Sources  []SourceResponse `json:"sources"`
	Notes    []string         `json:"notes,omitempty"`
}

type HistoryMessage struct {
	Role      string    `json:"role" example:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryResponse struct {
	SessionId string           `json:"session_id"`
	Messages  []HistoryMessage `json:"messages"`
}

type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Sessions int    `json:"sessions" example:"3"`
}

// requests---------------------

type ModeRequest struct {
	Mode string `json:"mode" validate:"required" example:"hub"`
}

type QuestionRequest struct {
	Question string `json:"question" validate:"required" example:"What is the warranty period?"`
}
