package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"project_amharicAI/internal/entities"
)

const summaryDocumentLimit = 5

type translationInput struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

type translationOutput struct {
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	TargetLanguage string `json:"targetLanguage"`
}

type amharicEnglishInput struct {
	Text      string `json:"text"`
	Direction string `json:"direction"`
}

type amharicEnglishOutput struct {
	OriginalText     string `json:"originalText"`
	TranslatedText   string `json:"translatedText"`
	Direction        string `json:"direction"`
	DetectedLanguage string `json:"detectedLanguage"`
}

type summarizedDocument struct {
	Name     string            `json:"name"`
	Language entities.Language `json:"language"`
	Size     int64             `json:"size"`
}

type summaryOutput struct {
	Summary   string               `json:"summary"`
	Documents []summarizedDocument `json:"documents"`
}

type extractedDocument struct {
	Filename          string            `json:"filename"`
	Language          entities.Language `json:"language"`
	WordCount         int               `json:"wordCount"`
	HasAmharicContent bool              `json:"hasAmharicContent"`
}

type extractionOutput struct {
	ExtractedData []extractedDocument `json:"extractedData"`
}

const directionAmToEn = "am-to-en"

// runAction executes one workflow run and returns its JSON output.
func (uc *WorkflowUsecase) runAction(ctx context.Context, w *entities.Workflow, exec *entities.WorkflowExecution) (json.RawMessage, error) {
	action, err := w.Action()
	if err != nil {
		return nil, err
	}

	var result any
	switch a := action.(type) {
	case entities.WebhookAction:
		return uc.runWebhook(ctx, a, w, exec)
	case entities.DocumentSummaryAction:
		result, err = uc.summarizeDocuments(ctx, w.CompanyID)
	case entities.LanguageTranslationAction:
		result, err = translate(exec.Input)
	case entities.AmharicEnglishTranslationAction:
		result, err = translateAmharicEnglish(exec.Input)
	case entities.DataExtractionAction:
		result, err = uc.extractData(ctx, w.CompanyID)
	default:
		return nil, fmt.Errorf("unhandled workflow action %T", a)
	}
	if err != nil {
		return nil, err
	}

	output, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow output: %w", err)
	}
	return output, nil
}

func (uc *WorkflowUsecase) runWebhook(ctx context.Context, a entities.WebhookAction, w *entities.Workflow, exec *entities.WorkflowExecution) (json.RawMessage, error) {
	body, err := uc.webhook.Post(ctx, a.URL, entities.WebhookEnvelope{
		CompanyID:   w.CompanyID,
		WorkflowID:  w.ID,
		ExecutionID: exec.ID,
		Input:       exec.Input,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body), nil
	}
	// Non-JSON bodies are kept verbatim as a JSON string.
	output, err := json.Marshal(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook output: %w", err)
	}
	return output, nil
}

func (uc *WorkflowUsecase) summarizeDocuments(ctx context.Context, companyID string) (summaryOutput, error) {
	docs, err := uc.documents.All(ctx, companyID, summaryDocumentLimit)
	if err != nil {
		return summaryOutput{}, err
	}
	out := summaryOutput{
		Summary:   fmt.Sprintf("Processed %d documents", len(docs)),
		Documents: make([]summarizedDocument, 0, len(docs)),
	}
	for _, d := range docs {
		out.Documents = append(out.Documents, summarizedDocument{Name: d.OriginalName, Language: d.Language, Size: d.FileSize})
	}
	return out, nil
}

func (uc *WorkflowUsecase) extractData(ctx context.Context, companyID string) (extractionOutput, error) {
	docs, err := uc.documents.All(ctx, companyID, 0)
	if err != nil {
		return extractionOutput{}, err
	}
	out := extractionOutput{ExtractedData: make([]extractedDocument, 0, len(docs))}
	for _, d := range docs {
		out.ExtractedData = append(out.ExtractedData, extractedDocument{
			Filename:          d.OriginalName,
			Language:          d.Language,
			WordCount:         wordCount(d.Content),
			HasAmharicContent: entities.ContainsEthiopic(d.Content),
		})
	}
	return out, nil
}

// wordCount counts single-space separated fields; empty content counts as zero words.
func wordCount(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Split(content, " "))
}

func decodeInput(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid workflow input: %w", err)
	}
	return nil
}

func translate(raw json.RawMessage) (translationOutput, error) {
	var in translationInput
	if err := decodeInput(raw, &in); err != nil {
		return translationOutput{}, err
	}
	if in.Text == "" || in.TargetLanguage == "" {
		return translationOutput{}, errors.New("Text and target language are required")
	}
	return translationOutput{
		OriginalText:   in.Text,
		TranslatedText: fmt.Sprintf("[%s] %s", strings.ToUpper(in.TargetLanguage), in.Text),
		TargetLanguage: in.TargetLanguage,
	}, nil
}

func translateAmharicEnglish(raw json.RawMessage) (amharicEnglishOutput, error) {
	var in amharicEnglishInput
	if err := decodeInput(raw, &in); err != nil {
		return amharicEnglishOutput{}, err
	}
	if in.Text == "" {
		return amharicEnglishOutput{}, errors.New("Text is required")
	}
	if in.Direction == "" {
		in.Direction = directionAmToEn
	}

	out := amharicEnglishOutput{
		OriginalText:     in.Text,
		TranslatedText:   "[AMHARIC] " + in.Text,
		Direction:        in.Direction,
		DetectedLanguage: "english",
	}
	if in.Direction == directionAmToEn {
		out.TranslatedText = "[ENGLISH] " + in.Text
	}
	if entities.ContainsEthiopic(in.Text) {
		out.DetectedLanguage = "amharic"
	}
	return out, nil
}
