package chat

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"tonebot/internal/gif"
	"tonebot/internal/memory"
	"tonebot/internal/sentiment"
	"tonebot/internal/telemetry"
	"tonebot/internal/tone"
)

const (
	onboardingGuidance = "👋 Hi! Choose your tone: `/tone funny`, `/tone serious`, `/tone poetic`, `/tone dark_humor`\nRequest a GIF with: `/gif <topic>`"
	invalidToneReply   = "Invalid tone. Options: funny, serious, poetic, dark_humor."
	missingTopicReply  = "Please specify a topic after /gif"
	missingToneReply   = "Please specify a tone after /tone"
	gifSuccessMessage  = "Here's a GIF for you!"

	moodNotePositive = "The user seems happy. Be playful and joyful in your response. 😄"
	moodNoteNegative = "The user seems sad. Be empathetic and comforting in your response. 🥺"
	moodNoteNeutral  = "The user is neutral. Respond normally."

	// Chance of decorating a reply with a GIF when sentiment is positive or
	// the tone is funny
	gifChance = 0.3
)

// Completer generates the assistant reply for a full transcript
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// GifFetcher resolves a search query to a GIF URL. It never fails: on
// exhaustion it returns gif.FallbackGIF.
type GifFetcher interface {
	Fetch(ctx context.Context, query string) string
}

// Reply is the assembled response for one handled message
type Reply struct {
	Response       string
	ConversationID string
	GifURL         string // empty when no GIF was attached
}

// Orchestrator runs the per-message decision pipeline: command dispatch,
// tone gating, memory update, sentiment tagging, context injection,
// completion, and probabilistic GIF decoration.
type Orchestrator struct {
	registry   *Registry
	extractor  memory.Extractor
	classifier sentiment.Classifier
	completer  Completer
	gifs       GifFetcher
	telemetry  *telemetry.Provider

	// chance drives the GIF decoration draw; replaced in tests
	chance func() float64
}

func NewOrchestrator(
	registry *Registry,
	extractor memory.Extractor,
	classifier sentiment.Classifier,
	completer Completer,
	gifs GifFetcher,
	telemetryProvider *telemetry.Provider,
) *Orchestrator {
	return &Orchestrator{
		registry:   registry,
		extractor:  extractor,
		classifier: classifier,
		completer:  completer,
		gifs:       gifs,
		telemetry:  telemetryProvider,
		chance:     rand.Float64,
	}
}

// HandleMessage processes one inbound message for a conversation, creating
// the conversation if the id is unknown. The conversation is locked for the
// whole turn so concurrent requests for the same id serialize.
func (o *Orchestrator) HandleMessage(ctx context.Context, conversationID string, role string, message string) (Reply, error) {
	conv := o.registry.GetOrCreate(conversationID)
	conv.mu.Lock()
	defer conv.mu.Unlock()

	if !conv.Active {
		return Reply{}, fmt.Errorf("conversation %q: %w", conversationID, ErrSessionEnded)
	}

	switch cmd := ParseCommand(message).(type) {
	case GifCommand:
		return o.handleGifCommand(ctx, conv, conversationID, cmd), nil
	case ToneCommand:
		return o.handleToneCommand(ctx, conv, conversationID, cmd), nil
	case ChatMessage:
		return o.respond(ctx, conv, conversationID, role, cmd.Text)
	default:
		return Reply{}, fmt.Errorf("unhandled command type %T", cmd)
	}
}

// handleGifCommand serves "/gif <topic>". The fetched asset reference is
// always returned, fallback included.
func (o *Orchestrator) handleGifCommand(ctx context.Context, conv *Conversation, id string, cmd GifCommand) Reply {
	if cmd.Topic == "" {
		return Reply{Response: missingTopicReply, ConversationID: id}
	}

	gifURL := o.gifs.Fetch(ctx, cmd.Topic)
	var response string
	if gifURL == gif.FallbackGIF {
		response = fmt.Sprintf("%s\n![GIF](%s)", gif.FallbackMessage, gifURL)
	} else {
		response = fmt.Sprintf("%s\n![GIF](%s)", gifSuccessMessage, gifURL)
	}

	conv.Append(RoleUser, "/gif "+cmd.Topic)
	conv.Append(RoleAssistant, response)
	return Reply{Response: response, ConversationID: id, GifURL: gifURL}
}

// handleToneCommand serves "/tone <name>". Switching to the funny tone
// additionally fetches a celebratory GIF.
func (o *Orchestrator) handleToneCommand(ctx context.Context, conv *Conversation, id string, cmd ToneCommand) Reply {
	if cmd.Tone == "" {
		return Reply{Response: missingToneReply, ConversationID: id}
	}

	if err := conv.SetTone(cmd.Tone); err != nil {
		// Invalid tone is a user mistake, not a failure; no state was mutated
		return Reply{Response: invalidToneReply, ConversationID: id}
	}

	gifURL := ""
	if conv.CurrentTone == "funny" {
		gifURL = o.gifs.Fetch(ctx, "celebrate")
	}

	response := fmt.Sprintf("Tone changed to '%s'", cmd.Tone)
	switch {
	case gifURL == gif.FallbackGIF:
		response += fmt.Sprintf("\n%s\n![GIF](%s)", gif.FallbackMessage, gifURL)
	case gifURL != "":
		response += fmt.Sprintf("\n![GIF](%s)", gifURL)
	}

	conv.Append(RoleAssistant, response)
	return Reply{Response: response, ConversationID: id, GifURL: gifURL}
}

// respond runs the default chat pipeline for a non-command message
func (o *Orchestrator) respond(ctx context.Context, conv *Conversation, id string, role string, message string) (Reply, error) {
	if !conv.ToneSet {
		return Reply{Response: onboardingGuidance, ConversationID: id}, nil
	}

	conv.MergeFacts(o.extractor.Extract(message))

	label, err := o.classifier.Classify(ctx, message)
	if err != nil {
		// No silent fallback to neutral: a broken classifier surfaces as an
		// upstream failure rather than quietly skewing replies
		return Reply{}, &UpstreamError{Op: "sentiment classification", ConversationID: id, Err: err}
	}

	var moodNote string
	switch label {
	case sentiment.Positive:
		moodNote = moodNotePositive
	case sentiment.Negative:
		moodNote = moodNoteNegative
	default:
		moodNote = moodNoteNeutral
	}

	conv.InjectMemoryContext()
	conv.Append(RoleSystem, moodNote)
	if role == "" {
		role = RoleUser
	}
	conv.Append(role, message)

	response, err := o.completer.Complete(ctx, conv.Messages)
	if err != nil {
		return Reply{}, &UpstreamError{Op: "completion", ConversationID: id, Err: err}
	}

	gifURL := ""
	if (label == sentiment.Positive || conv.CurrentTone == "funny") && o.chance() < gifChance {
		query := "funny"
		if label == sentiment.Positive {
			query = "happy"
		}
		gifURL = o.gifs.Fetch(ctx, query)
		if gifURL == gif.FallbackGIF {
			response += fmt.Sprintf("\n%s\n![GIF](%s)", gif.FallbackMessage, gifURL)
		} else {
			response += fmt.Sprintf("\n![GIF](%s)", gifURL)
		}
	}

	conv.Append(RoleAssistant, response)

	if o.telemetry != nil {
		o.telemetry.RecordTurn(ctx, telemetry.TurnTelemetry{
			ConversationID: id,
			TurnID:         telemetry.NewTurnID(),
			Tone:           conv.CurrentTone,
			Sentiment:      string(label),
			GifAttached:    gifURL != "",
		})
	}

	return Reply{Response: response, ConversationID: id, GifURL: gifURL}, nil
}

// IsUserError reports whether err should surface as a client mistake rather
// than a server failure.
func IsUserError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrSessionEnded) ||
		errors.Is(err, tone.ErrInvalid)
}
