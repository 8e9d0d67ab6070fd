package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"fairrent/internal/model"
	"fairrent/internal/utils"
)

// Personas understood by the strategist prompt
const (
	PersonaTenant = "tenant"
	PersonaOwner  = "owner"
)

// PropertyProfile is the property the conversation is anchored on, taken
// from the valuation context sent with each question
type PropertyProfile struct {
	City          string
	Locality      string
	BHK           string
	Area          string
	Furnishing    string
	PredictedRent float64
}

// ProfileFromContext decodes the ml_data of a chat request. It reports false
// for null, unparsable or incomplete context.
func ProfileFromContext(raw json.RawMessage) (*PropertyProfile, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}

	var ctx struct {
		City         string          `json:"city"`
		Locality     string          `json:"locality"`
		BHK          model.FormValue `json:"bhk"`
		Area         model.FormValue `json:"area"`
		Furnishing   string          `json:"furnishing"`
		FairRentLow  *float64        `json:"fair_rent_low"`
		FairRentHigh *float64        `json:"fair_rent_high"`
	}
	if err := json.Unmarshal(raw, &ctx); err != nil {
		return nil, false
	}
	if ctx.FairRentLow == nil || ctx.FairRentHigh == nil {
		return nil, false
	}

	return &PropertyProfile{
		City:          ctx.City,
		Locality:      ctx.Locality,
		BHK:           string(ctx.BHK),
		Area:          string(ctx.Area),
		Furnishing:    ctx.Furnishing,
		PredictedRent: (*ctx.FairRentLow + *ctx.FairRentHigh) / 2,
	}, true
}

const ownerPersonaPrompt = `## USER PERSONA: PROPERTY OWNER
The user is a property owner seeking to maximise rental yield.
- Provide ROI-focused insights, suggest optimal listing price, maintenance ROI.
- Calculate gross yield: (annual rent / capital value) × 100.
- Suggest which upgrades (modular kitchen, AC, etc.) increase rent premium.
- Advise on tenant screening and lease duration for maximum stability.`

const tenantPersonaPrompt = `## USER PERSONA: TENANT / RENTER
The user is seeking to rent a property and avoid overpaying.
- Identify if the asking price is above/below the ML benchmark.
- Provide concrete negotiation scripts and non-monetary asks (parking, lock-in flexibility).
- Flag red flags in listings (price spikes, hidden costs like maintenance).
- Suggest comparable localities that offer better value.`

const responseStylePrompt = `## RESPONSE STYLE
- Use ₹ for all currency. Bold key numbers and locations.
- No filler phrases. Be direct and tactical.
- End every response with a **💡 Strategist's Pro-Tip**.
- If asked for a full report/analysis, structure it:
  1. Market Dynamics
  2. Competitor Micro-Markets (name 2 nearby localities)
  3. Yield/ROI or Negotiation Levers (based on persona)
  4. 30-Day Outlook`

// BuildSystemPrompt assembles the strategist prompt for a profile and persona.
// A nil profile means no valuation has been obtained yet.
func BuildSystemPrompt(profile *PropertyProfile, persona string) string {
	var b strings.Builder
	b.WriteString(`## ROLE: THE CATALYST STRATEGIST
You are a Tier-1 Real Estate Investment Strategist specializing in Indian Urban Markets (Mumbai, Pune, Delhi NCR).
You operate with the precision of a data scientist and the instincts of a 20-year veteran broker.
Tone: Sophisticated, Direct, Data-driven.

`)

	if profile != nil {
		fmt.Fprintf(&b, `## PROPERTY PROFILE (IMMUTABLE)
- **Configuration:** %s BHK | %s sqft | %s
- **Location:** %s, %s
- **ML Fair Rent:** %s/month (±5%% confidence band)
  This is your anchor. Always defend it with micro-market data.

`, profile.BHK, profile.Area, profile.Furnishing, profile.Locality, profile.City,
			utils.FormatINR(math.Trunc(profile.PredictedRent)))
	} else {
		b.WriteString(`## PROPERTY PROFILE
No valuation has been run yet. Answer from general market knowledge and suggest
running a fair-rent estimate for a precise benchmark.

`)
	}

	if persona == PersonaOwner {
		b.WriteString(ownerPersonaPrompt)
	} else {
		b.WriteString(tenantPersonaPrompt)
	}
	b.WriteString("\n\n")
	b.WriteString(responseStylePrompt)
	b.WriteString("\n")
	return b.String()
}

// ParseHistory turns "role: text" transcript lines into chat messages.
// "user:" lines become user messages, "assistant:" and "ai:" lines become
// assistant messages, and unprefixed lines continue the previous message.
// A trailing user message equal to question is dropped because the question
// is sent as the final message.
func ParseHistory(history, question string) []ChatMessage {
	var msgs []ChatMessage
	for _, line := range strings.Split(strings.TrimSpace(history), "\n") {
		role, text, ok := splitHistoryLine(line)
		if ok {
			msgs = append(msgs, ChatMessage{Role: role, Content: text})
			continue
		}
		if len(msgs) > 0 {
			msgs[len(msgs)-1].Content += "\n" + line
		}
	}

	if n := len(msgs); n > 0 && msgs[n-1].Role == "user" &&
		strings.TrimSpace(msgs[n-1].Content) == strings.TrimSpace(question) {
		msgs = msgs[:n-1]
	}
	return msgs
}

func splitHistoryLine(line string) (role, text string, ok bool) {
	prefixes := []struct {
		prefix string
		role   string
	}{
		{"user:", "user"},
		{"assistant:", "assistant"},
		{"ai:", "assistant"},
	}
	for _, p := range prefixes {
		if strings.HasPrefix(line, p.prefix) {
			return p.role, strings.TrimSpace(line[len(p.prefix):]), true
		}
	}
	return "", "", false
}

// Strategist is the built-in assistant backend answering with an
// OpenAI-compatible chat model
type Strategist struct {
	model   ChatModel
	persona string
	logger  *zap.Logger
}

// NewStrategist creates a strategist. defaultPersona applies to requests
// that do not name one.
func NewStrategist(chat ChatModel, defaultPersona string, logger *zap.Logger) *Strategist {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultPersona == "" {
		defaultPersona = PersonaTenant
	}
	return &Strategist{model: chat, persona: defaultPersona, logger: logger}
}

// Messages builds the full message list sent to the model for req
func (s *Strategist) Messages(req model.ChatRequest) []ChatMessage {
	persona := req.Persona
	if persona == "" {
		persona = s.persona
	}
	profile, _ := ProfileFromContext(req.MLData)

	msgs := []ChatMessage{{Role: "system", Content: BuildSystemPrompt(profile, persona)}}
	msgs = append(msgs, ParseHistory(req.ChatHistory, req.UserQuestion)...)
	return append(msgs, ChatMessage{Role: "user", Content: req.UserQuestion})
}

// Reply implements AssistantBackend
func (s *Strategist) Reply(ctx context.Context, req model.ChatRequest) (string, error) {
	resp, err := s.model.ChatCompletion(ctx, ChatCompletionRequest{Messages: s.Messages(req)})
	if err != nil {
		return "", fmt.Errorf("strategist completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in completion", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// ReplyStream streams the answer, calling onDelta with each content piece,
// and returns the full text
func (s *Strategist) ReplyStream(ctx context.Context, req model.ChatRequest, onDelta func(string) error) (string, error) {
	var full strings.Builder
	chunks := 0
	err := s.model.ChatCompletionStream(ctx, ChatCompletionRequest{Messages: s.Messages(req)}, func(chunk *StreamChunk) error {
		chunks++
		if chunk.Content == "" {
			return nil
		}
		full.WriteString(chunk.Content)
		return onDelta(chunk.Content)
	})
	if err != nil {
		return "", fmt.Errorf("strategist stream failed: %w", err)
	}
	s.logger.Debug("strategist stream finished", zap.Int("chunks", chunks), zap.Int("length", full.Len()))
	return full.String(), nil
}

var _ AssistantBackend = (*Strategist)(nil)
