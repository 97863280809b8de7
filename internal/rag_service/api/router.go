package api

import "github.com/gin-gonic/gin"

// SetupRouter configures and returns the Gin engine for the RAG service.
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", h.Health)

	apiV1 := r.Group("/api/v1")
	{
		rag := apiV1.Group("/rag")
		{
			rag.POST("/embeddings", h.GenerateEmbeddings)
			rag.POST("/query", h.Query)
			rag.POST("/tree-query", h.TreeQuery)
			rag.GET("/tree-status/:documentId", h.TreeStatus)
		}
	}

	return r
}
