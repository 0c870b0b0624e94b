// Package service is the narrow surface the upload and chat collaborators
// call into: train a chatbot from documents, answer a question with cited
// sources, and manage its quiz set. Request and response shapes follow the
// chat/qna wire contract.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"chatbot-rag/internal/models"
	"chatbot-rag/internal/namespace"
	"chatbot-rag/internal/quiz"
	"chatbot-rag/internal/rag"
	"chatbot-rag/internal/trainer"
)

type ChatRequest struct {
	Company  string `json:"company"`
	Team     string `json:"team"`
	Part     string `json:"part"`
	Chatbot  string `json:"chatbot_name"`
	Question string `json:"question"`
}

type ChatResponse struct {
	Answer  string          `json:"answer"`
	Sources []models.Source `json:"sources"`
}

type QuizRequest struct {
	Company   string `json:"company"`
	Team      string `json:"team"`
	Part      string `json:"part"`
	Chatbot   string `json:"chatbot_name"`
	Questions int    `json:"n_questions"`
	Force     bool   `json:"force"`
}

type Service struct {
	dataDir   string
	trainer   *trainer.Trainer
	rag       *rag.RAG
	quizzes   *quiz.Synthesizer
	quizStore *quiz.Store
}

func New(dataDir string, t *trainer.Trainer, r *rag.RAG, qs *quiz.Synthesizer, store *quiz.Store) *Service {
	return &Service{dataDir: dataDir, trainer: t, rag: r, quizzes: qs, quizStore: store}
}

// Upload trains the chatbot on a batch of documents.
func (s *Service) Upload(ctx context.Context, ns namespace.Namespace, files []string) (*trainer.Result, error) {
	reqID := uuid.NewString()
	log.Info().Str("request", reqID).Str("namespace", ns.String()).Int("files", len(files)).Msg("Upload")
	return s.trainer.Train(ctx, ns, files)
}

// Chat answers a question against the chatbot's index.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	ns, err := namespace.New(req.Company, req.Team, req.Part, req.Chatbot)
	if err != nil {
		return nil, err
	}
	reqID := uuid.NewString()
	log.Info().Str("request", reqID).Str("namespace", ns.String()).Msg("Chat")

	answer, err := s.rag.Answer(ctx, ns, req.Question)
	if err != nil {
		return nil, err
	}
	return &ChatResponse{Answer: answer.Text, Sources: answer.Sources}, nil
}

// Quiz returns the chatbot's quiz set, generating one when none is stored.
// Force discards the stored set and regenerates; otherwise an existing set is
// returned as-is.
func (s *Service) Quiz(ctx context.Context, req QuizRequest) ([]models.QuizItem, error) {
	ns, err := namespace.New(req.Company, req.Team, req.Part, req.Chatbot)
	if err != nil {
		return nil, err
	}
	reqID := uuid.NewString()
	log.Info().Str("request", reqID).Str("namespace", ns.String()).Bool("force", req.Force).Msg("Quiz")

	if !req.Force {
		existing, err := s.quizStore.List(ns)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return existing, nil
		}
	}

	n := req.Questions
	if n <= 0 {
		n = 5
	}
	batch, err := s.quizzes.Generate(ctx, ns, n)
	if err != nil {
		return nil, err
	}
	if req.Force {
		return s.quizStore.Replace(ns, batch)
	}
	return s.quizStore.Append(ns, batch)
}

// DeleteQuizQuestion removes one question by id and returns the remaining set.
func (s *Service) DeleteQuizQuestion(ctx context.Context, req QuizRequest, questionID int) ([]models.QuizItem, error) {
	ns, err := namespace.New(req.Company, req.Team, req.Part, req.Chatbot)
	if err != nil {
		return nil, err
	}
	return s.quizStore.DeleteByID(ns, questionID)
}

// DeleteChatbot removes the namespace and everything under it.
func (s *Service) DeleteChatbot(ns namespace.Namespace) error {
	return trainer.DeleteNamespace(s.dataDir, ns)
}
