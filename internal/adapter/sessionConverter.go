package adapter

import (
	"fmt"

	"github.com/akolanti/PDFChat/internal/api"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/domain/sessionModel"
	"github.com/akolanti/PDFChat/internal/rag"
)

const excerptLength = 300

func ToSessionResponse(snapshot sessionModel.Snapshot) api.SessionResponse {
	res := api.SessionResponse{
		Id:              snapshot.Id,
		Mode:            string(snapshot.Mode),
		ModeDescription: snapshot.Mode.Description(),
		State:           string(snapshot.State),
		Turns:           snapshot.Turns,
		CreatedAt:       snapshot.CreatedAt,
		LastActive:      snapshot.LastActive,
	}
	if snapshot.Report != nil {
		report := ToReportResponse(*snapshot.Report)
		res.Report = &report
	}
	return res
}

func ToReportResponse(report sessionModel.ProcessReport) api.ReportResponse {
	res := api.ReportResponse{
		Documents:         report.Documents,
		Characters:        report.Characters,
		Chunks:            report.Chunks,
		Mode:              string(report.Mode),
		EmbeddingProvider: report.EmbeddingProvider,
		GeneratorProvider: report.GeneratorProvider,
		Warnings:          report.Warnings,
		Notes:             report.Notes,
		BuiltAt:           report.BuiltAt,
	}
	if res.Documents == nil {
		res.Documents = []string{}
	}
	for _, fe := range report.FileErrors {
		res.FileErrors = append(res.FileErrors, api.FileErrorResponse{DocumentName: fe.Name, Message: fe.Message})
	}
	return res
}

func ToProcessResponse(report sessionModel.ProcessReport) api.ProcessResponse {
	return api.ProcessResponse{
		Message: fmt.Sprintf("Processed %d document(s) into %d chunks.", len(report.Documents), report.Chunks),
		Report:  ToReportResponse(report),
	}
}

func ToAnswerResponse(question string, answer rag.Answer) api.AnswerResponse {
	sources := make([]api.SourceResponse, 0, len(answer.Sources))
	for _, s := range answer.Sources {
		sources = append(sources, api.SourceResponse{
			ChunkIndex: s.Chunk.Index,
			Score:      s.Score,
			Excerpt:    excerpt(s.Chunk.Text),
		})
	}
	return api.AnswerResponse{
		Question: question,
		Answer:   answer.Text,
		Provider: answer.Provider,
		Sources:  sources,
		Notes:    answer.Notes,
	}
}

// ToHistoryResponse flattens turns into alternating user and assistant messages, oldest first.
func ToHistoryResponse(sessionId string, turns []commonModels.Turn) api.HistoryResponse {
	messages := make([]api.HistoryMessage, 0, 2*len(turns))
	for _, turn := range turns {
		messages = append(messages,
			api.HistoryMessage{Role: "user", Content: turn.Question, CreatedAt: turn.CreatedAt},
			api.HistoryMessage{Role: "assistant", Content: turn.Answer, CreatedAt: turn.CreatedAt},
		)
	}
	return api.HistoryResponse{SessionId: sessionId, Messages: messages}
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLength {
		return text
	}
	return string(runes[:excerptLength]) + "..."
}
