package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/config"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/database/milvus"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/database/minio"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/database/mysql"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/database/redis"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/embedding"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/llm"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/api"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/pagesource"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/pipeline"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/splitters"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/storages/fragmentstore"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/storages/treecache"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/storages/vectorindex"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/structindex"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/service"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/pkg/logger"
)

const httpPort = ":8080"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("RAGService", "")
	appLogger.Info("Starting RAG service...")

	// Relational store is the only hard dependency.
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	defer mysql.Close()

	store := fragmentstore.NewGormStore(db, appLogger)
	if err := store.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	checks := []service.HealthCheck{
		{Name: "mysql", Check: mysql.HealthCheck},
	}

	// Redis-backed tree cache, in-memory when unconfigured.
	var treeCache interfaces.TreeCache = treecache.NewMemoryCache()
	if cfg.Databases.Redis.Address != "" {
		rdb, err := redis.GetClient(&cfg.Databases.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redis.Close()
		treeCache = treecache.NewRedisCache(rdb)
		checks = append(checks, service.HealthCheck{Name: "redis", Check: redis.HealthCheck})
	}

	// Page-image grounding is optional: without MinIO, hierarchical answers
	// fall back to node summaries.
	var pages interfaces.PageSource
	if cfg.Databases.MinIO.Endpoint != "" {
		mc, err := minio.GetClient(&cfg.Databases.MinIO)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		pages = pagesource.NewMinioPageSource(mc, cfg.Databases.MinIO.Bucket, appLogger)
		checks = append(checks, service.HealthCheck{Name: "minio", Check: minio.HealthCheck})
	}

	// ANN acceleration is optional: without Milvus, fragments are scored
	// in-process.
	var annIndex interfaces.VectorIndex
	if cfg.Databases.Milvus.Address != "" {
		mvc, err := milvus.GetClient(context.Background(), &cfg.Databases.Milvus)
		if err != nil {
			log.Fatalf("Failed to connect to Milvus: %v", err)
		}
		defer mvc.Close()
		annIndex, err = vectorindex.NewMilvusIndex(mvc, cfg.Databases.Milvus.Collection, appLogger)
		if err != nil {
			log.Fatalf("Failed to create Milvus vector index: %v", err)
		}
		checks = append(checks, service.HealthCheck{Name: "milvus", Check: mvc.HealthCheck})
	}

	var treeProvider interfaces.TreeProvider
	if cfg.StructIndex.BaseURL != "" {
		treeProvider = structindex.NewClient(cfg.StructIndex.BaseURL)
	} else {
		appLogger.Warn("no structural-indexing collaborator configured, hierarchical queries will report trees as not found")
	}

	chat, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	if chat == nil {
		appLogger.Warn("no LLM provider configured, answer synthesis is disabled")
	}

	resolver := embedding.NewResolver(cfg.Embedding, appLogger)
	splitter := splitters.NewCharSplitter(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)

	qa := pipeline.NewQAPipeline(appLogger)
	indexing := pipeline.NewIndexingPipeline(splitter, resolver, store, annIndex, cfg.Retrieval.EmbedWorkers, appLogger)
	flat := pipeline.NewFlatPipeline(store, resolver, annIndex, appLogger)
	tree := pipeline.NewTreePipeline(treeProvider, treeCache, pages, chat, qa,
		time.Duration(cfg.Databases.Redis.TTL)*time.Second, appLogger)

	ragService := service.NewRagService(cfg, indexing, flat, tree, qa, chat, checks, appLogger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(ragService, appLogger, cfg.IsProduction())
	router := api.SetupRouter(handler)

	srv := &http.Server{Addr: httpPort, Handler: router}
	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", httpPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("forced shutdown")
	}
	appLogger.Info("Server gracefully stopped")
}
