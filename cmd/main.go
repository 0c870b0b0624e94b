package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chatbot-rag/internal/chunker"
	"chatbot-rag/internal/config"
	"chatbot-rag/internal/db"
	"chatbot-rag/internal/embedding"
	"chatbot-rag/internal/helper"
	"chatbot-rag/internal/llmservice"
	"chatbot-rag/internal/models"
	"chatbot-rag/internal/namespace"
	"chatbot-rag/internal/quiz"
	"chatbot-rag/internal/rag"
	"chatbot-rag/internal/service"
	"chatbot-rag/internal/trainer"
)

const configFilePath = "./configs/config.yaml"

type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }
func (f *fileList) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	var files fileList
	flag.Var(&files, "file", "Document to train on (repeatable)")
	query := flag.String("query", "", "Question to answer")
	quizCount := flag.Int("quiz", 0, "Number of quiz questions to generate")
	forceQuiz := flag.Bool("force", false, "Regenerate the quiz set instead of returning the stored one")
	deleteQuestion := flag.Int("delete-question", 0, "Quiz question id to delete")
	deleteBot := flag.Bool("delete", false, "Delete the chatbot and all its data")

	company := flag.String("company", "", "Company the chatbot belongs to")
	team := flag.String("team", "", "Team the chatbot belongs to")
	part := flag.String("part", "", "Part the chatbot belongs to")
	name := flag.String("name", "", "Chatbot name")
	flag.Parse()

	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ns, err := namespace.New(*company, *team, *part, *name)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid chatbot identity")
	}

	svc, err := buildService(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing service")
	}

	ctx := context.Background()
	switch {
	case *deleteBot:
		if err := svc.DeleteChatbot(ns); err != nil {
			log.Fatal().Err(err).Msg("Error deleting chatbot")
		}
		fmt.Println("deleted", ns)

	case len(files) > 0:
		result, err := svc.Upload(ctx, ns, files)
		if err != nil {
			log.Fatal().Err(err).Msg("Error training chatbot")
		}
		helper.PrettyPrint(result)

	case *query != "":
		resp, err := svc.Chat(ctx, service.ChatRequest{
			Company: ns.Company, Team: ns.Team, Part: ns.Part, Chatbot: ns.Name,
			Question: *query,
		})
		if err != nil {
			if errors.Is(err, models.ErrNamespaceNotFound) {
				log.Fatal().Err(err).Msg("No trained chatbot for this namespace, upload a document first")
			}
			log.Fatal().Err(err).Msg("Error answering question")
		}
		fmt.Printf("%s\n\n", resp.Answer)
		for _, src := range resp.Sources {
			if src.PageNumber > 0 {
				fmt.Printf("  [%s - Page %d]\n", src.Document, src.PageNumber)
			} else {
				fmt.Printf("  [%s]\n", src.Document)
			}
		}

	case *deleteQuestion > 0:
		items, err := svc.DeleteQuizQuestion(ctx, quizRequest(ns, 0, false), *deleteQuestion)
		if err != nil {
			log.Fatal().Err(err).Msg("Error deleting quiz question")
		}
		helper.PrettyPrint(items)

	case *quizCount > 0 || *forceQuiz:
		items, err := svc.Quiz(ctx, quizRequest(ns, *quizCount, *forceQuiz))
		if err != nil {
			log.Fatal().Err(err).Msg("Error generating quiz")
		}
		helper.PrettyPrint(items)

	default:
		log.Fatal().Msg("Provide -file to train, -query to ask, -quiz to generate questions, -delete-question or -delete")
	}
}

func quizRequest(ns namespace.Namespace, n int, force bool) service.QuizRequest {
	return service.QuizRequest{
		Company: ns.Company, Team: ns.Team, Part: ns.Part, Chatbot: ns.Name,
		Questions: n, Force: force,
	}
}

func buildService(cfg *config.Config) (*service.Service, error) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, err
	}

	generator, err := llmservice.NewClient(&cfg.InferLLM, cfg.RAG.GenerateWithin.Std())
	if err != nil {
		return nil, err
	}

	searcher, err := buildSearcher(cfg)
	if err != nil {
		return nil, err
	}

	ck := chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	ragPipeline := rag.New(searcher, embedder, generator, cfg.RAG.TopK)
	train := trainer.New(cfg.Storage.DataDir, ck, embedder)
	quizStore := quiz.NewStore(cfg.Storage.DataDir)
	quizzes := quiz.NewSynthesizer(ragPipeline, generator)

	return service.New(cfg.Storage.DataDir, train, ragPipeline, quizzes, quizStore), nil
}

func buildSearcher(cfg *config.Config) (rag.Searcher, error) {
	if !cfg.Database.Enabled {
		return rag.NewLocalSearcher(cfg.Storage.DataDir), nil
	}

	sqldb, err := db.ConnectDB(&cfg.Database)
	if err != nil {
		return nil, err
	}
	bundb := db.NewDB(sqldb, cfg.Database.Debug)
	if err := db.InitDB(context.Background(), bundb); err != nil {
		return nil, err
	}
	return db.NewSearcher(bundb), nil
}
