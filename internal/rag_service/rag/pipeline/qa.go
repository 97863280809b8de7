package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/pkg/logger"
)

// QAPipeline generates an answer grounded in retrieved context.
type QAPipeline struct {
	log *logger.Logger
}

// NewQAPipeline creates a QAPipeline.
func NewQAPipeline(log *logger.Logger) *QAPipeline {
	return &QAPipeline{log: log}
}

// Run builds a grounded prompt from text contexts and asks the model for
// an answer.
func (p *QAPipeline) Run(ctx context.Context, llm interfaces.LLM, question string, contexts []string) (string, error) {
	prompt := p.buildPrompt(question, contexts)
	p.log.Debug(fmt.Sprintf("sending QA prompt with %d context blocks", len(contexts)))
	return llm.Generate(ctx, prompt)
}

// RunVision grounds the answer in rendered page images instead of text.
func (p *QAPipeline) RunVision(ctx context.Context, llm interfaces.LLM, question string, images [][]byte) (string, error) {
	prompt := fmt.Sprintf(
		"Answer the question using only the attached document pages as evidence. "+
			"Cite the page a statement comes from where possible.\n\nQuestion: %s", question)
	p.log.Debug(fmt.Sprintf("sending QA prompt with %d page images", len(images)))
	return llm.GenerateVision(ctx, prompt, images)
}

func (p *QAPipeline) buildPrompt(question string, contexts []string) string {
	var sb strings.Builder

	sb.WriteString("Based on the following context, please answer the question.\n\nContext:\n")
	for i, c := range contexts {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("Context %d:\n%s\n", i+1, c))
	}
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("Question: %s", question))

	return sb.String()
}
