package botflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/botflow/pkg/botflow/observability"
	"github.com/randalmurphal/botflow/pkg/botflow/rating"
	"github.com/randalmurphal/botflow/pkg/botflow/template"
)

// Phase is the session's position in the conversation lifecycle.
type Phase string

// Session phases.
const (
	// PhaseNotStarted means no turns have been emitted yet.
	PhaseNotStarted Phase = "not_started"

	// PhaseAtNode means the session sits at a node that demands no user
	// action, typically because the flow stalled with no outgoing
	// connection. Only restart is accepted.
	PhaseAtNode Phase = "at_node"

	// PhaseAwaitingInput means the current node waits for free text or an
	// option selection.
	PhaseAwaitingInput Phase = "awaiting_input"

	// PhaseAwaitingRating means a rating sub-dialog is showing.
	PhaseAwaitingRating Phase = "awaiting_rating"

	// PhaseEnded means an end node was reached. Only restart is accepted.
	PhaseEnded Phase = "ended"
)

// Synthetic bot messages. A flow's own FallbackMessage overrides the
// fallback default.
const (
	defaultFallbackMessage = "I'm sorry, I didn't understand that."
	startOverMessage       = "Would you like to start over?"
	ratingThanksMessage    = "Thank you for your feedback!"
	aiFailureMessage       = "Sorry, I'm having trouble generating a response right now."
	deliveredStatus        = "Delivered"
)

// restartCommand is matched case-insensitively against option values and
// free text at any point in a run.
const restartCommand = "restart"

// correction option values carried by a "Did you mean" turn.
const (
	correctionAccept  = "yes"
	correctionDecline = "no"
)

// contentExpander substitutes {{userInput}} in node content. Unknown
// placeholders expand to the empty string rather than leaking braces to
// the user.
var contentExpander = template.NewExpander(template.WithMissingAction(template.MissingEmpty))

// Correction is a pending "Did you mean" suggestion awaiting accept or
// decline before the submitted text is applied to the state machine.
type Correction struct {
	// Original is the text the user submitted.
	Original string

	// Corrected is the suggested replacement.
	Corrected string
}

// Session drives one conversation run over an immutable flow snapshot.
//
// A session is strictly sequential: one user action is fully resolved,
// including any completion service round-trip, before the next is
// accepted. Intake methods return an error only when the session is
// closed; conversational faults (resolution misses, malformed graphs,
// AI failures) degrade to fallback or diagnostic turns instead.
type Session struct {
	mu   sync.Mutex
	flow *Flow
	cfg  sessionConfig

	phase         Phase
	currentNodeID string
	lastInput     string
	pending       *Correction
	closed        bool

	history *Recorder

	spanCtx context.Context
	span    trace.Span
}

// NewSession creates a session over a private clone of flow.
// The caller may keep editing the original between runs.
func NewSession(flow *Flow, opts ...SessionOption) (*Session, error) {
	if flow == nil {
		return nil, ErrNoFlow
	}

	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.logger = observability.EnrichLogger(cfg.logger, cfg.sessionID, flow.Name)

	return &Session{
		flow:    flow.Clone(),
		cfg:     cfg,
		phase:   PhaseNotStarted,
		history: NewRecorder(),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.cfg.sessionID
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// CurrentNodeID returns the id of the node the session sits at, or ""
// before the first node is entered.
func (s *Session) CurrentNodeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentNodeID
}

// InputAllowed reports whether a free-text submission or option
// selection would currently be applied (rather than ignored or held
// behind a pending correction).
func (s *Session) InputAllowed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseAwaitingInput && s.pending == nil
}

// PendingOptions returns the choices the current node offers, if the
// session is waiting on a selection.
func (s *Session) PendingOptions() []Option {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return []Option{
			{Label: "Yes", Value: correctionAccept},
			{Label: "No", Value: correctionDecline},
		}
	}
	if s.phase != PhaseAwaitingInput {
		return nil
	}
	node, ok := s.flow.FindNode(s.currentNodeID)
	if !ok {
		return nil
	}
	return append([]Option(nil), node.Data.Options...)
}

// PendingCorrection returns the outstanding correction suggestion, if
// any.
func (s *Session) PendingCorrection() (Correction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Correction{}, false
	}
	return *s.pending, true
}

// Turns returns the session's transcript in emission order.
func (s *Session) Turns() []Turn {
	return s.history.Turns()
}

// Start opens the conversation: emits the welcome message, then enters
// the start node and follows its auto-advance cascade. Starting an
// already started session is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.phase != PhaseNotStarted {
		return nil
	}

	s.spanCtx, s.span = s.cfg.spans.StartSessionSpan(ctx, s.flow.Name, s.cfg.sessionID)
	observability.LogSessionStart(s.cfg.logger, s.cfg.sessionID)
	s.cfg.metrics.RecordSessionStart(s.spanCtx)

	s.begin(s.spanCtx)
	return nil
}

// begin emits the welcome turn and the start node cascade.
// Caller holds the lock.
func (s *Session) begin(ctx context.Context) {
	if s.flow.WelcomeMessage != "" {
		s.post(ctx, newTurn(SenderBot, s.flow.WelcomeMessage))
	}

	start, ok := s.flow.StartNode()
	if !ok {
		observability.LogStall(s.cfg.logger, "")
		s.phase = PhaseAtNode
		return
	}
	s.enterNode(ctx, start, 0)
}

// SelectOption applies an option selection to the current node.
//
// The literal value "restart" (any case) restarts the run from any
// phase. While a correction suggestion is pending, only its yes/no
// values are applied. Selections outside PhaseAwaitingInput, and values
// that resolve to no connection, never corrupt the session: the former
// are ignored, the latter re-emit the fallback turn in place.
func (s *Session) SelectOption(ctx context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if strings.EqualFold(value, restartCommand) {
		s.restart(ctx)
		return nil
	}

	if s.pending != nil {
		switch value {
		case correctionAccept:
			s.resolveCorrection(ctx, true)
		case correctionDecline:
			s.resolveCorrection(ctx, false)
		}
		return nil
	}

	if s.phase != PhaseAwaitingInput {
		return nil
	}

	node, ok := s.flow.FindNode(s.currentNodeID)
	if !ok {
		return nil
	}

	s.postUserEcho(ctx, optionLabel(node, value))
	s.lastInput = value

	if node.Data.UseAI && s.cfg.aiClient != nil {
		s.answerWithAI(ctx, node, value)
		return nil
	}

	conn, found := s.flow.FindConnection(node.ID, value)
	if !found {
		s.fallback(ctx, node.ID, value)
		return nil
	}
	target, ok := s.flow.FindNode(conn.TargetID)
	if !ok {
		s.fallback(ctx, node.ID, value)
		return nil
	}
	s.enterNode(ctx, target, 0)
	return nil
}

// SubmitText applies a free-text submission to the current node. At an
// option-driven node the text is matched against connection triggers
// like a selection, with fallback on a miss.
//
// The literal text "restart" (any case) restarts the run from any
// phase. With correction enabled, the text may first surface a "Did you
// mean" suggestion; resolution is then held until AcceptCorrection or
// DeclineCorrection.
func (s *Session) SubmitText(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if strings.EqualFold(strings.TrimSpace(text), restartCommand) {
		s.restart(ctx)
		return nil
	}

	if s.pending != nil {
		return nil
	}
	if s.phase != PhaseAwaitingInput {
		return nil
	}

	s.postUserEcho(ctx, text)

	if s.cfg.correction && s.cfg.aiClient != nil {
		corrected := s.correctText(ctx, text)
		if !strings.EqualFold(strings.TrimSpace(corrected), strings.TrimSpace(text)) {
			s.pending = &Correction{Original: text, Corrected: corrected}
			suggestion := newTurn(SenderBot, `Did you mean: "`+corrected+`"?`)
			suggestion.Options = []Option{
				{Label: "Yes", Value: correctionAccept},
				{Label: "No", Value: correctionDecline},
			}
			s.post(ctx, suggestion)
			return nil
		}
	}

	s.resolveText(ctx, text)
	return nil
}

// AcceptCorrection resolves a pending suggestion with the corrected
// text. A no-op when no suggestion is pending.
func (s *Session) AcceptCorrection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.pending != nil {
		s.resolveCorrection(ctx, true)
	}
	return nil
}

// DeclineCorrection resolves a pending suggestion with the original
// text. A no-op when no suggestion is pending.
func (s *Session) DeclineCorrection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.pending != nil {
		s.resolveCorrection(ctx, false)
	}
	return nil
}

// SubmitRating records a 1-5 star rating for the showing rating
// sub-dialog and advances the flow. Out-of-range values and submissions
// outside PhaseAwaitingRating are ignored.
func (s *Session) SubmitRating(ctx context.Context, stars int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.phase != PhaseAwaitingRating {
		return nil
	}
	if stars < 1 || stars > 5 {
		return nil
	}

	nodeID := s.currentNodeID
	if s.cfg.ratings != nil {
		err := s.cfg.ratings.Save(rating.Rating{
			SessionID: s.cfg.sessionID,
			NodeID:    nodeID,
			Stars:     stars,
		})
		if err != nil {
			observability.LogRatingError(s.cfg.logger, nodeID, err)
		} else {
			observability.LogRatingSaved(s.cfg.logger, nodeID, stars)
		}
	}
	s.cfg.metrics.RecordRating(ctx, stars)

	s.advanceFromRating(ctx, nodeID)
	return nil
}

// SkipRating dismisses the showing rating sub-dialog without recording
// anything and advances the flow. A no-op outside PhaseAwaitingRating.
func (s *Session) SkipRating(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.phase != PhaseAwaitingRating {
		return nil
	}

	s.advanceFromRating(ctx, s.currentNodeID)
	return nil
}

// Restart discards all conversation state and replays the run from the
// beginning over the same flow snapshot.
func (s *Session) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.restart(ctx)
	return nil
}

// Close ends the run. All subsequent intake returns ErrSessionClosed.
// Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.span != nil {
		s.cfg.spans.EndSpanWithError(s.span, nil)
		s.span = nil
	}
	return nil
}

// restart clears state and replays the start cascade.
// Caller holds the lock.
func (s *Session) restart(ctx context.Context) {
	observability.LogSessionRestart(s.cfg.logger, s.cfg.sessionID, s.history.Len())

	s.history.Reset()
	s.phase = PhaseNotStarted
	s.currentNodeID = ""
	s.lastInput = ""
	s.pending = nil

	if s.span != nil {
		s.cfg.spans.EndSpanWithError(s.span, nil)
	}
	s.spanCtx, s.span = s.cfg.spans.StartSessionSpan(ctx, s.flow.Name, s.cfg.sessionID)
	s.cfg.metrics.RecordSessionStart(s.spanCtx)

	s.begin(s.spanCtx)
}

// enterNode emits the entered node's bot turn and applies its
// transition rule. hops counts auto-advanced nodes since the last user
// action; past the configured limit the flow stalls in place.
// Caller holds the lock.
func (s *Session) enterNode(ctx context.Context, node *Node, hops int) {
	if hops > s.cfg.maxAutoAdvance {
		observability.LogStall(s.cfg.logger, node.ID)
		s.currentNodeID = node.ID
		s.phase = PhaseAtNode
		return
	}

	observability.LogNodeEnter(s.cfg.logger, node.ID, string(node.Type))
	s.currentNodeID = node.ID
	content := s.expandContent(node.Data.Content)

	switch node.Type {
	case NodeStart, NodeMessage:
		if content != "" {
			s.post(ctx, botTurn(content, node.ID))
		}
		conn, ok := s.flow.FirstConnection(node.ID)
		if !ok {
			observability.LogStall(s.cfg.logger, node.ID)
			s.phase = PhaseAtNode
			return
		}
		target, ok := s.flow.FindNode(conn.TargetID)
		if !ok {
			observability.LogStall(s.cfg.logger, node.ID)
			s.phase = PhaseAtNode
			return
		}
		s.enterNode(ctx, target, hops+1)

	case NodeMultiChoice, NodeButton:
		turn := botTurn(content, node.ID)
		turn.Options = append([]Option(nil), node.Data.Options...)
		s.post(ctx, turn)
		s.phase = PhaseAwaitingInput

	case NodeTextInput:
		turn := botTurn(content, node.ID)
		turn.InputRequired = true
		s.post(ctx, turn)
		s.phase = PhaseAwaitingInput

	case NodeRating:
		prompt := content
		if prompt == "" {
			prompt = "How would you rate this conversation?"
		}
		s.post(ctx, botTurn(prompt, node.ID))
		s.phase = PhaseAwaitingRating

	case NodeEnd:
		if content != "" {
			s.post(ctx, botTurn(content, node.ID))
		}
		over := botTurn(startOverMessage, node.ID)
		over.Options = restartOption()
		s.post(ctx, over)
		s.phase = PhaseEnded
		observability.LogSessionEnd(s.cfg.logger, s.cfg.sessionID, node.ID)

	default:
		s.post(ctx, botTurn("This step is not supported.", node.ID))
		observability.LogStall(s.cfg.logger, node.ID)
		s.phase = PhaseAtNode
	}
}

// resolveText applies accepted free text to the current node: the AI
// path when the node delegates, trigger matching when the node is
// option-driven, otherwise the single auto-advance edge.
// Caller holds the lock.
func (s *Session) resolveText(ctx context.Context, text string) {
	node, ok := s.flow.FindNode(s.currentNodeID)
	if !ok {
		return
	}

	s.lastInput = text

	if node.Data.UseAI && s.cfg.aiClient != nil {
		s.answerWithAI(ctx, node, text)
		return
	}

	// Typed text at an option-driven node resolves like a selection:
	// the text must equal a connection trigger, and a miss falls back.
	if node.Type == NodeMultiChoice || node.Type == NodeButton {
		conn, found := s.flow.FindConnection(node.ID, text)
		if !found {
			s.fallback(ctx, node.ID, text)
			return
		}
		target, found := s.flow.FindNode(conn.TargetID)
		if !found {
			s.fallback(ctx, node.ID, text)
			return
		}
		s.enterNode(ctx, target, 0)
		return
	}

	conn, ok := s.flow.FirstConnection(node.ID)
	if !ok {
		s.fallback(ctx, node.ID, text)
		return
	}
	target, ok := s.flow.FindNode(conn.TargetID)
	if !ok {
		s.fallback(ctx, node.ID, text)
		return
	}
	s.enterNode(ctx, target, 0)
}

// resolveCorrection applies a resolved suggestion.
// Caller holds the lock.
func (s *Session) resolveCorrection(ctx context.Context, accepted bool) {
	pending := s.pending
	s.pending = nil

	text := pending.Original
	if accepted {
		text = pending.Corrected
	}
	s.resolveText(ctx, text)
}

// answerWithAI delegates the user's message to the completion service:
// typing placeholder, reply turn (diagnostic on failure), then the
// node's auto-advance edge if one exists. An AI reply satisfies the
// node, so a missing edge stalls rather than falling back.
// Caller holds the lock.
func (s *Session) answerWithAI(ctx context.Context, node *Node, message string) {
	typing := newTurn(SenderBot, "")
	typing.IsTyping = true
	typing.NodeID = node.ID
	s.post(ctx, typing)

	aiCtx, span := s.cfg.spans.StartAISpan(ctx, "reply")
	elapsed := observability.TimedOperation()
	reply, err := s.cfg.aiClient.Reply(aiCtx, message)
	durationMs := elapsed()
	s.cfg.spans.EndSpanWithError(span, err)
	s.cfg.metrics.RecordAIRequest(ctx, "reply", msDuration(durationMs), err)

	if err != nil {
		observability.LogAIError(s.cfg.logger, "reply", err)
		reply = aiFailureMessage
	} else {
		observability.LogAIRequest(s.cfg.logger, "reply", durationMs)
	}

	s.post(ctx, botTurn(reply, node.ID))

	conn, ok := s.flow.FirstConnection(node.ID)
	if !ok {
		s.phase = PhaseAtNode
		return
	}
	target, ok := s.flow.FindNode(conn.TargetID)
	if !ok {
		observability.LogStall(s.cfg.logger, node.ID)
		s.phase = PhaseAtNode
		return
	}
	s.enterNode(ctx, target, 0)
}

// correctText asks the completion service for a corrected form of text.
// Any failure means "no correction warranted".
// Caller holds the lock.
func (s *Session) correctText(ctx context.Context, text string) string {
	aiCtx, span := s.cfg.spans.StartAISpan(ctx, "correct")
	elapsed := observability.TimedOperation()
	corrected, err := s.cfg.aiClient.Correct(aiCtx, text)
	durationMs := elapsed()
	s.cfg.spans.EndSpanWithError(span, err)
	s.cfg.metrics.RecordAIRequest(ctx, "correct", msDuration(durationMs), err)

	if err != nil {
		observability.LogAIError(s.cfg.logger, "correct", err)
		return text
	}
	observability.LogAIRequest(s.cfg.logger, "correct", durationMs)
	if corrected == "" {
		return text
	}
	return corrected
}

// advanceFromRating dismisses the rating sub-dialog and follows the
// rating node's single outgoing edge, or ends the flow with a thank-you
// when there is none.
// Caller holds the lock.
func (s *Session) advanceFromRating(ctx context.Context, nodeID string) {
	conn, ok := s.flow.FirstConnection(nodeID)
	if ok {
		if target, found := s.flow.FindNode(conn.TargetID); found {
			s.enterNode(ctx, target, 0)
			return
		}
	}

	thanks := botTurn(ratingThanksMessage, nodeID)
	thanks.Options = restartOption()
	s.post(ctx, thanks)
	s.phase = PhaseEnded
	observability.LogSessionEnd(s.cfg.logger, s.cfg.sessionID, nodeID)
}

// fallback emits the configured fallback message with a Restart option,
// leaving the current node and phase unchanged.
// Caller holds the lock.
func (s *Session) fallback(ctx context.Context, nodeID, trigger string) {
	observability.LogFallback(s.cfg.logger, nodeID, trigger)
	s.cfg.metrics.RecordFallback(ctx, nodeID)

	msg := s.flow.FallbackMessage
	if msg == "" {
		msg = defaultFallbackMessage
	}
	turn := botTurn(msg, nodeID)
	turn.Options = restartOption()
	s.post(ctx, turn)
}

// postUserEcho emits the user's message followed by a delivery status
// marker.
// Caller holds the lock.
func (s *Session) postUserEcho(ctx context.Context, message string) {
	s.post(ctx, newTurn(SenderUser, message))
	s.post(ctx, newTurn(SenderStatus, deliveredStatus))
}

// post appends a turn to the transcript and delivers it to every
// attached sink.
// Caller holds the lock.
func (s *Session) post(ctx context.Context, t Turn) {
	s.history.Post(t)
	for _, sink := range s.cfg.sinks {
		sink.Post(t)
	}
	observability.LogTurn(s.cfg.logger, string(t.Sender), t.NodeID)
	s.cfg.metrics.RecordTurn(ctx, string(t.Sender))
}

// expandContent substitutes {{userInput}} with the most recent accepted
// user input: free text or a selected option's value, whichever came
// last. Unknown placeholders vanish.
func (s *Session) expandContent(content string) string {
	expanded, _ := contentExpander.Expand(content, map[string]any{
		"userInput": s.lastInput,
	})
	return expanded
}

func msDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func botTurn(message, nodeID string) Turn {
	t := newTurn(SenderBot, message)
	t.NodeID = nodeID
	return t
}

// optionLabel echoes the selected option's label; unknown values echo
// the raw value.
func optionLabel(node *Node, value string) string {
	for _, o := range node.Data.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}
