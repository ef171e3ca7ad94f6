package chat

import (
	"context"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/nocturne-labs/dreamscape/pkg/conflict"
	"github.com/nocturne-labs/dreamscape/pkg/db"
	"github.com/nocturne-labs/dreamscape/pkg/emotion"
	"github.com/nocturne-labs/dreamscape/pkg/extract"
	"github.com/nocturne-labs/dreamscape/pkg/helpers"
	"github.com/nocturne-labs/dreamscape/pkg/memory"
	"github.com/nocturne-labs/dreamscape/pkg/model"
	"github.com/nocturne-labs/dreamscape/pkg/respond"
	"github.com/nocturne-labs/dreamscape/pkg/session"
)

const (
	contextualFactLimit = 5
	// Probability of writing a knowledge snapshot after a turn. A fixed
	// interval flush in the server bounds the loss window regardless.
	snapshotChance = 0.1
)

// Service sequences one inbound turn through the whole pipeline: detect
// emotion, extract facts, check conflicts, store, update the session, rank
// relevant memories, generate the reply, persist opportunistically.
type Service struct {
	logger    *log.Logger
	sessions  *session.Store
	bank      *memory.Bank
	extractor *extract.Extractor
	detector  *emotion.Detector
	resolver  *conflict.Resolver
	engine    *respond.Engine
	store     *db.Store  // optional
	nc        *nats.Conn // optional
	chance    func() float64
}

func NewService(
	logger *log.Logger,
	sessions *session.Store,
	bank *memory.Bank,
	extractor *extract.Extractor,
	detector *emotion.Detector,
	resolver *conflict.Resolver,
	engine *respond.Engine,
	store *db.Store,
	nc *nats.Conn,
) *Service {
	return &Service{
		logger:    logger,
		sessions:  sessions,
		bank:      bank,
		extractor: extractor,
		detector:  detector,
		resolver:  resolver,
		engine:    engine,
		store:     store,
		nc:        nc,
		chance:    rand.Float64,
	}
}

// ProcessTurn handles one inbound message. Nothing below this boundary is
// allowed to surface an error for a model or persistence failure; the
// reply degrades instead.
func (s *Service) ProcessTurn(ctx context.Context, history []model.Message, sessionID string) model.ChatResult {
	sess := s.sessions.GetOrCreate(sessionID)

	if len(history) == 0 {
		return model.ChatResult{
			ReplyText:      "Hey, you found me. What's on your mind tonight?",
			SessionID:      sess.ID,
			EmotionalState: sess.Context.EmotionalState,
		}
	}

	latest := history[len(history)-1]
	if latest.ID == "" {
		latest.ID = uuid.New().String()
	}
	if latest.Timestamp.IsZero() {
		latest.Timestamp = time.Now()
	}

	// Resubmitted or duplicate request: skip the expensive work.
	if !s.sessions.IsNewer(sess.ID, latest) {
		s.logger.Debug("Duplicate turn ignored", "session_id", sess.ID, "message_id", latest.ID)
		return model.ChatResult{
			ReplyText:      "Still here with you. What else is going on?",
			SessionID:      sess.ID,
			EmotionalState: sess.Context.EmotionalState,
		}
	}

	analysis := s.detector.DetectEmotion(ctx, history)
	extraction := s.extractor.ExtractFacts(ctx, latest.Text, sess.Context.CurrentTopics)
	report := s.resolver.DetectConflicts(extraction.Facts, s.bank.KnowledgeByCategory())

	s.storeFacts(extraction.Facts, report)

	s.sessions.Update(sess.ID, latest, string(analysis.PrimaryEmotion))
	sess, _ = s.sessions.Get(sess.ID)

	relevant := s.bank.ContextualFacts(latest.Text, nil, contextualFactLimit)

	result := s.engine.GenerateResponse(ctx, respond.Context{
		Message:       latest.Text,
		Emotion:       analysis,
		Conflicts:     report.Conflicts,
		LearnedFacts:  extraction.Facts,
		RelevantFacts: relevant,
		Topics:        sess.Context.CurrentTopics,
	})

	agentMessage := model.Message{
		ID:        uuid.New().String(),
		Text:      result.Response,
		Sender:    model.SenderAgent,
		Timestamp: time.Now(),
	}
	s.sessions.Update(sess.ID, agentMessage, "")

	s.persistTurn(ctx, sess.ID, latest, agentMessage)
	s.publishTurn(sess.ID, agentMessage, extraction.Facts)

	return model.ChatResult{
		ReplyText:      result.Response,
		SessionID:      sess.ID,
		EmotionalState: string(analysis.PrimaryEmotion),
		LearnedFacts:   factContents(extraction.Facts),
		Clarifications: clarifications(report.Conflicts),
	}
}

// storeFacts writes the turn's facts into the bank. Conflicts the resolver
// marked auto-resolvable are applied through conflict resolution instead
// of a plain store, so the audit links are kept.
func (s *Service) storeFacts(facts []memory.Fact, report conflict.Report) {
	resolved := make(map[string]bool)
	for _, c := range report.AutoResolvable {
		if resolved[c.NewFact.ID] {
			continue
		}
		choice := memory.ResolutionMerge
		if c.SuggestedResolution == conflict.ResolutionUpdate {
			choice = memory.ResolutionKeepNew
		}
		s.bank.ResolveConflict(c.NewFact, c.ExistingFact.ID, choice)
		resolved[c.NewFact.ID] = true
	}
	for _, fact := range facts {
		if !resolved[fact.ID] {
			s.bank.StoreFact(fact)
		}
	}
}

func (s *Service) persistTurn(ctx context.Context, sessionID string, userMessage, agentMessage model.Message) {
	if s.store == nil {
		return
	}
	if err := s.store.AppendMessages(ctx, sessionID, userMessage, agentMessage); err != nil {
		s.logger.Error("Failed to persist transcript", "session_id", sessionID, "error", err)
	}
	if s.chance() < snapshotChance {
		if err := s.SaveSnapshot(ctx); err != nil {
			s.logger.Error("Failed to persist knowledge snapshot", "error", err)
		}
	}
}

func (s *Service) publishTurn(sessionID string, agentMessage model.Message, facts []memory.Fact) {
	if s.nc == nil {
		return
	}
	if err := helpers.NatsPublish(s.nc, "chat."+sessionID, agentMessage); err != nil {
		s.logger.Warn("Failed to publish reply", "error", err)
	}
	if len(facts) > 0 {
		if err := helpers.NatsPublish(s.nc, "memory.facts", facts); err != nil {
			s.logger.Warn("Failed to publish learned facts", "error", err)
		}
	}
}

// SaveSnapshot flushes the current knowledge export to SQLite.
func (s *Service) SaveSnapshot(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.SaveSnapshot(ctx, s.bank.Export())
}

// LoadSnapshot imports the newest stored snapshot, typically at startup.
func (s *Service) LoadSnapshot(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	snapshot, err := s.store.LoadLatestSnapshot(ctx)
	if err != nil {
		return err
	}
	s.bank.Import(snapshot)
	return nil
}

// SweepSessions removes expired sessions; meant to run on a ticker.
func (s *Service) SweepSessions() int {
	return s.sessions.CleanupExpired()
}

// ExportKnowledge exposes the bank's snapshot for the HTTP surface.
func (s *Service) ExportKnowledge() memory.Snapshot {
	return s.bank.Export()
}

// ImportKnowledge loads an externally supplied snapshot into the bank.
func (s *Service) ImportKnowledge(snapshot memory.Snapshot) {
	s.bank.Import(snapshot)
}

// MemoryStats exposes aggregate memory counters.
func (s *Service) MemoryStats() memory.Stats {
	return s.bank.MemoryStats()
}

// RecentFacts exposes the newest learnings for the HTTP surface.
func (s *Service) RecentFacts(hoursBack int) []memory.Fact {
	return s.bank.RecentFacts(hoursBack)
}

func factContents(facts []memory.Fact) []string {
	contents := make([]string, 0, len(facts))
	for _, fact := range facts {
		contents = append(contents, fact.Content)
	}
	return contents
}

// clarifications maps every detected conflict for the frontend to render;
// the reply text itself carries at most one of these questions.
func clarifications(conflicts []conflict.Info) []model.Clarification {
	out := make([]model.Clarification, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, model.Clarification{
			ConflictID: c.ConflictID,
			Question:   c.ClarificationQuestion,
			Severity:   string(c.Severity),
		})
	}
	return out
}
