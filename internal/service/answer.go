package service

import (
	"context"
	"errors"
	"log"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/telemetry"
)

const answerSystemPrompt = `You are a fleet-maintenance assistant helping a mechanic.
Answer using ONLY the manual excerpts below when they are relevant.
Cite excerpts inline with their bracketed labels, e.g. [c1].
When an excerpt offers a figure placeholder like {{fig1_1}}, place it
on its own line where the diagram should appear. Do not invent labels.

Manual excerpts:
`

// Retriever is the query-time lookup the answer flow depends on.
type Retriever interface {
	Retrieve(ctx context.Context, ownerID, query, manualID string, maxSections int) (*RetrievalResult, error)
}

// Assembler turns retrieval hits into prompt context and citations.
type Assembler interface {
	Assemble(ctx context.Context, hits []RetrievalHit) (string, map[string]domain.CitationRecord)
}

// Generator streams a completion for the grounded prompt.
type Generator interface {
	StreamCompletion(ctx context.Context, system string, history []domain.ChatMessage, onDelta func(delta string) error) error
}

// AnswerRequest is one question against the owner's manuals.
type AnswerRequest struct {
	Query       string
	ManualID    string
	MaxSections int
	History     []domain.ChatMessage
}

// AnswerEvent is one frame of the response stream: either a content
// delta or, exactly once at the end, the citation map.
type AnswerEvent struct {
	Content   string
	Citations map[string]domain.CitationRecord
}

// EventSink receives stream events in order. Returning an error stops
// the stream.
type EventSink func(event AnswerEvent) error

// ReferencesResult is the non-streaming retrieval summary exposed for
// pre-flight reference lookups.
type ReferencesResult struct {
	Vehicle   domain.VehicleContext
	Citations map[string]domain.CitationRecord
}

// AnswerService drives the query-time flow: retrieve, assemble
// citations, stream the grounded answer, then emit the citation map as
// the final event.
type AnswerService struct {
	retriever Retriever
	assembler Assembler
	generator Generator
}

func NewAnswerService(retriever Retriever, assembler Assembler, generator Generator) *AnswerService {
	return &AnswerService{
		retriever: retriever,
		assembler: assembler,
		generator: generator,
	}
}

// Answer streams the response for one question. The citation event is
// always the last event emitted, after every content delta, so a
// consumer can accumulate deltas and then resolve labels. Rate-limit
// and quota errors from the generator pass through untouched.
func (s *AnswerService) Answer(ctx context.Context, ownerID string, req AnswerRequest, emit EventSink) error {
	if req.Query == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "query is required")
	}

	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Answer", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		ManualID:  req.ManualID,
		Operation: "answer",
	})
	defer span.End()

	hits, err := s.retrieveHits(ctx, ownerID, req)
	if err != nil {
		span.SetError(err)
		return err
	}

	prompt, citations := s.assembler.Assemble(ctx, hits)

	history := append(append([]domain.ChatMessage{}, req.History...), domain.ChatMessage{
		Role:    domain.ChatRoleUser,
		Content: req.Query,
	})

	err = s.generator.StreamCompletion(ctx, answerSystemPrompt+prompt, history, func(delta string) error {
		return emit(AnswerEvent{Content: delta})
	})
	if err != nil {
		return err
	}

	return emit(AnswerEvent{Citations: citations})
}

// References runs retrieval and citation assembly without generation,
// so the UI can show which sources a question would draw on.
func (s *AnswerService) References(ctx context.Context, ownerID string, req AnswerRequest) (*ReferencesResult, error) {
	if req.Query == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "query is required")
	}

	ctx, span := telemetry.StartSpan(ctx, "AnswerService.References", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		ManualID:  req.ManualID,
		Operation: "references",
	})
	defer span.End()

	result, err := s.retriever.Retrieve(ctx, ownerID, req.Query, req.ManualID, req.MaxSections)
	if err != nil {
		return nil, err
	}

	_, citations := s.assembler.Assemble(ctx, result.Hits)
	return &ReferencesResult{
		Vehicle:   result.Vehicle,
		Citations: citations,
	}, nil
}

// retrieveHits surfaces hard failures but lets an unreachable store
// degrade to an ungrounded answer: the model is told no excerpts were
// found rather than the request failing outright.
func (s *AnswerService) retrieveHits(ctx context.Context, ownerID string, req AnswerRequest) ([]RetrievalHit, error) {
	result, err := s.retriever.Retrieve(ctx, ownerID, req.Query, req.ManualID, req.MaxSections)
	if err == nil {
		return result.Hits, nil
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) && domainErr.Code == domain.ErrCodeRetrievalUnavailable {
		log.Printf("answer: retrieval unavailable, proceeding without grounding: %v", err)
		return nil, nil
	}
	return nil, err
}
