/*
Package botflow provides the conversation flow model and execution
engine behind a visual chatbot builder.

# Overview

botflow interprets author-defined conversation graphs: typed nodes
(start, message, multichoice, button, textinput, rating, end) wired
together by directed, labeled connections. A Session walks the graph
turn by turn in response to user actions, emitting an ordered stream of
Turn events to a presentation sink, optionally delegating individual
turns to an external completion service.

The engine is deliberately forgiving at run time: malformed graphs,
unmatched inputs, and completion service failures degrade to stalled or
fallback-driven conversations rather than errors. Use Lint for
authoring-time diagnostics.

# Basic Usage

Build a flow, open a session, and feed it user actions:

	flow := &botflow.Flow{
	    WelcomeMessage:  "Hi! How can I help?",
	    FallbackMessage: "Sorry, I didn't get that.",
	    Nodes: []botflow.Node{
	        {ID: "start-1", Type: botflow.NodeStart, Data: botflow.NodeData{Content: "Welcome!"}},
	        {ID: "ask", Type: botflow.NodeButton, Data: botflow.NodeData{
	            Content: "Are you a new customer?",
	            Options: []botflow.Option{{Label: "Yes", Value: "yes"}, {Label: "No", Value: "no"}},
	        }},
	        {ID: "done", Type: botflow.NodeEnd, Data: botflow.NodeData{Content: "Thanks for visiting!"}},
	    },
	    Connections: []botflow.Connection{
	        {ID: "c1", SourceID: "start-1", TargetID: "ask", SourceOutput: botflow.DefaultOutput},
	        {ID: "c2", SourceID: "ask", TargetID: "done", SourceOutput: "yes"},
	        {ID: "c3", SourceID: "ask", TargetID: "done", SourceOutput: "no"},
	    },
	}

	recorder := botflow.NewRecorder()
	session, err := botflow.NewSession(flow, botflow.WithSink(recorder))
	if err != nil {
	    log.Fatal(err)
	}
	defer session.Close()

	ctx := context.Background()
	session.Start(ctx)
	session.SelectOption(ctx, "yes")

	for _, t := range recorder.Turns() {
	    fmt.Printf("%s: %s\n", t.Sender, t.Message)
	}

Start and message nodes auto-advance along their single outgoing
connection, so one user action can produce a cascade of bot turns.

# AI Delegation

Nodes with Data.UseAI answer the user's message through a completion
service instead of trigger matching:

	client := ai.NewGroq(os.Getenv("GROQ_API_KEY"))
	session, _ := botflow.NewSession(flow,
	    botflow.WithAI(client),
	    botflow.WithCorrection(true))

With WithCorrection enabled, free-text submissions may first surface a
"Did you mean" suggestion; the session holds resolution until
AcceptCorrection or DeclineCorrection (or the yes/no options on the
suggestion turn itself).

Service failures never break a run: a failed reply becomes a diagnostic
bot turn and the flow still advances.

# Ratings

Rating nodes show a 1-5 star sub-dialog. Submitted ratings can be
persisted:

	store, _ := rating.NewSQLiteStore("./ratings.db")
	defer store.Close()

	session, _ := botflow.NewSession(flow, botflow.WithRatings(store))

Both SubmitRating and SkipRating advance along the rating node's
outgoing connection; without one the flow ends with a thank-you turn.

# Restart

The literal input "restart" (any case), the Restart method, and the
Restart option attached to end-of-flow and fallback turns all discard
the transcript and replay the run from the beginning. A restarted run
over the same flow re-emits the identical turn sequence.

# Observability

Enable logging, metrics, and tracing:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	session, _ := botflow.NewSession(flow,
	    botflow.WithLogger(logger),
	    botflow.WithMetrics(observability.NewMetricsRecorder()),
	    botflow.WithSpans(observability.NewSpanManager()))

Logs include structured fields: session_id, flow, node_id, sender.
OpenTelemetry metrics: botflow.sessions.started, botflow.turns.emitted,
botflow.ai.latency_ms, etc.

# Thread Safety

  - Flow is NOT safe for concurrent editing; Sessions run over a
    private clone taken at NewSession
  - Session IS safe for concurrent use; actions resolve one at a time
  - Library, Recorder, and Broadcaster are safe for concurrent use

# Subpackages

  - ai: Completion service clients (Groq HTTP, mock)
  - config: Flow document loading (YAML, JSON) with validation
  - rating: Rating storage (memory, SQLite)
  - template: {{placeholder}} substitution in message content
  - observability: Logging, metrics, and tracing helpers
*/
package botflow
