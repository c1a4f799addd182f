package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"concurseiro-backend/internal/models"
	"concurseiro-backend/internal/repository"
)

const (
	// maxCleanChars bounds the text sent to the structuring prompt.
	maxCleanChars = 15000
	// promptExcerptChars bounds what gets stored on the session row.
	promptExcerptChars = 500

	maxQuestionsPerRequest = 20
)

var validAnswers = map[string]bool{"A": true, "B": true, "C": true, "D": true, "E": true}

type QuestionService struct {
	materials  *repository.MaterialRepo
	questions  *repository.QuestionRepo
	aiConfigs  *repository.AIConfigRepo
	extract    *ExtractService
	youtube    *YouTubeService
	completion *CompletionClient
	envAPIKey  string
}

func NewQuestionService(
	materials *repository.MaterialRepo,
	questions *repository.QuestionRepo,
	aiConfigs *repository.AIConfigRepo,
	extract *ExtractService,
	youtube *YouTubeService,
	completion *CompletionClient,
	envAPIKey string,
) *QuestionService {
	return &QuestionService{
		materials:  materials,
		questions:  questions,
		aiConfigs:  aiConfigs,
		extract:    extract,
		youtube:    youtube,
		completion: completion,
		envAPIKey:  envAPIKey,
	}
}

// GenerateQuestions runs the linear pipeline: extract material text,
// clean it, request N multiple-choice questions, validate the response
// shape and persist the batch. Without an API key the generation step
// degrades to canned questions instead of failing.
func (s *QuestionService) GenerateQuestions(ctx context.Context, userID, materialID uuid.UUID, req models.GenerateQuestionsRequest) (*models.QuestionSession, []models.Question, error) {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "Title is required"
	}
	if req.Quantity < 1 || req.Quantity > maxQuestionsPerRequest {
		fields["quantity"] = fmt.Sprintf("Quantity must be between 1 and %d", maxQuestionsPerRequest)
	}
	if len(fields) > 0 {
		return nil, nil, &ValidationError{Fields: fields}
	}

	material, err := resolveOwnedMaterial(ctx, s.materials, userID, materialID)
	if err != nil {
		return nil, nil, err
	}

	rawText, err := s.extractText(ctx, material)
	if err != nil {
		return nil, nil, &UpstreamError{Message: err.Error()}
	}

	cfg, err := s.aiConfigs.GetOrDefault(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load AI config: %w", err)
	}
	apiKey := s.envAPIKey
	if cfg.APIKey != nil && *cfg.APIKey != "" {
		apiKey = *cfg.APIKey
	}

	cleaned := s.cleanText(ctx, cfg, apiKey, rawText)

	var questions []models.Question
	if apiKey == "" {
		questions = cannedQuestions(req.Quantity, cleaned)
	} else {
		questions, err = s.generate(ctx, cfg, apiKey, cleaned, req)
		if err != nil {
			return nil, nil, err
		}
	}

	session := &models.QuestionSession{
		UserID:        userID,
		MaterialID:    materialID,
		Title:         strings.TrimSpace(req.Title),
		PromptExcerpt: truncate(cleaned, promptExcerptChars),
	}
	if err := s.questions.CreateSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create question session: %w", err)
	}
	if err := s.questions.InsertQuestions(ctx, session.ID, questions); err != nil {
		return nil, nil, fmt.Errorf("failed to persist questions: %w", err)
	}
	session.QuestionCount = len(questions)

	return session, questions, nil
}

func (s *QuestionService) extractText(ctx context.Context, material *models.Material) (string, error) {
	switch material.Kind {
	case models.MaterialKindPDF:
		if material.FilePath == nil {
			return "", fmt.Errorf("material has no stored file")
		}
		return s.extract.ExtractPDF(*material.FilePath)
	case models.MaterialKindVideo:
		if material.SourceURL == nil {
			return "", fmt.Errorf("material has no source URL")
		}
		videoID, err := s.youtube.ParseVideoID(*material.SourceURL)
		if err != nil {
			return "", err
		}
		return s.youtube.GetTranscript(videoID)
	default:
		return "", fmt.Errorf("unsupported material kind %q", material.Kind)
	}
}

// cleanText structures the extracted text through the completion API
// when a key is configured. Any API failure falls back to the local
// regex cleanup; this step never fails the request.
func (s *QuestionService) cleanText(ctx context.Context, cfg *models.AIConfig, apiKey, text string) string {
	text = truncate(text, maxCleanChars)
	if apiKey == "" {
		return regexCleanup(text)
	}

	structured, err := s.completion.Complete(ctx, cfg, apiKey,
		"Você é um assistente que organiza textos de estudo.",
		"Reescreva o texto abaixo em parágrafos limpos e coerentes, sem comentários adicionais:\n\n"+text,
	)
	if err != nil || strings.TrimSpace(structured) == "" {
		return regexCleanup(text)
	}
	return strings.TrimSpace(structured)
}

func (s *QuestionService) generate(ctx context.Context, cfg *models.AIConfig, apiKey, paragraph string, req models.GenerateQuestionsRequest) ([]models.Question, error) {
	prompt := buildQuestionPrompt(paragraph, req.Quantity, req.Instruction)

	raw, err := s.completion.Complete(ctx, cfg, apiKey,
		"Você gera questões de múltipla escolha para concursos. Responda apenas com JSON válido.",
		prompt,
	)
	if err != nil {
		return nil, &UpstreamError{Message: err.Error()}
	}

	questions, err := parseQuestions(raw)
	if err != nil {
		return nil, &UpstreamError{Message: fmt.Sprintf("completion response was not valid question JSON: %v", err)}
	}
	if err := validateQuestions(questions); err != nil {
		return nil, &UpstreamError{Message: err.Error()}
	}
	return questions, nil
}

func buildQuestionPrompt(paragraph string, quantity int, instruction string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Gere exatamente %d questões de múltipla escolha sobre o texto abaixo.\n", quantity)
	b.WriteString("Cada questão deve ter 4 ou 5 alternativas, exatamente uma correta, uma explicação e o trecho do texto que fundamenta a resposta.\n")
	b.WriteString(`Responda SOMENTE com um array JSON neste formato:
[{"enunciado": "...", "alternativas": [{"letra": "A", "texto": "...", "correta": true}], "resposta": "A", "explicacao": "...", "trecho_fonte": "..."}]
`)
	if strings.TrimSpace(instruction) != "" {
		b.WriteString("Instrução adicional: " + strings.TrimSpace(instruction) + "\n")
	}
	b.WriteString("\nTexto:\n")
	b.WriteString(paragraph)
	return b.String()
}

// parseQuestions decodes the completion response, tolerating a json
// code fence or prose around the array.
func parseQuestions(raw string) ([]models.Question, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var questions []models.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		start := strings.Index(raw, "[")
		end := strings.LastIndex(raw, "]")
		if start < 0 || end <= start {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &questions); err != nil {
			return nil, err
		}
	}
	return questions, nil
}

// validateQuestions enforces the persistable shape: a non-empty batch
// where every question has an enunciation, 4-5 alternatives with exactly
// one marked correct, and an answer letter between A and E matching it.
func validateQuestions(questions []models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("completion returned zero questions")
	}

	for i := range questions {
		q := &questions[i]
		if strings.TrimSpace(q.Enunciation) == "" {
			return fmt.Errorf("question %d has an empty enunciation", i+1)
		}
		if len(q.Alternatives) < 4 || len(q.Alternatives) > 5 {
			return fmt.Errorf("question %d has %d alternatives, want 4 or 5", i+1, len(q.Alternatives))
		}

		correct := ""
		for ai := range q.Alternatives {
			alt := &q.Alternatives[ai]
			if alt.Letter == "" {
				alt.Letter = string(rune('A' + ai))
			}
			alt.Letter = strings.ToUpper(strings.TrimSpace(alt.Letter))
			if alt.Correta {
				if correct != "" {
					return fmt.Errorf("question %d marks more than one alternative as correct", i+1)
				}
				correct = alt.Letter
			}
		}
		if correct == "" {
			return fmt.Errorf("question %d has no correct alternative", i+1)
		}

		q.Answer = strings.ToUpper(strings.TrimSpace(q.Answer))
		if q.Answer == "" {
			q.Answer = correct
		}
		if !validAnswers[q.Answer] {
			return fmt.Errorf("question %d has invalid answer %q", i+1, q.Answer)
		}
		if q.Answer != correct {
			return fmt.Errorf("question %d answer %q does not match correct alternative %q", i+1, q.Answer, correct)
		}
	}
	return nil
}

// cannedQuestions is the no-API-key fallback: deterministic review
// prompts over the extracted text, no network involved.
func cannedQuestions(quantity int, paragraph string) []models.Question {
	excerpt := truncate(paragraph, 200)
	questions := make([]models.Question, 0, quantity)
	for i := 1; i <= quantity; i++ {
		questions = append(questions, models.Question{
			Enunciation: fmt.Sprintf("Questão de revisão %d: com base no material estudado, qual afirmação está correta?", i),
			Alternatives: []models.Alternative{
				{Letter: "A", Text: "O trecho lido sustenta esta afirmação.", Correta: true},
				{Letter: "B", Text: "A afirmação contradiz o trecho lido.", Correta: false},
				{Letter: "C", Text: "O trecho não aborda o tema da afirmação.", Correta: false},
				{Letter: "D", Text: "A afirmação só vale em contextos não citados.", Correta: false},
			},
			Answer:          "A",
			Explanation:     "Questão gerada localmente: configure uma chave da API de completions para questões elaboradas pelo modelo.",
			SourceParagraph: excerpt,
		})
	}
	return questions
}

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	strayCharsPattern = regexp.MustCompile(`[^\p{L}\p{N}\s.,;:!?()\-"']`)
)

// regexCleanup is the local fallback for the structuring step.
func regexCleanup(text string) string {
	text = strayCharsPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
