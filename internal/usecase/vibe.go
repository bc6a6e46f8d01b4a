package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"localvibe/internal/domain"
	"localvibe/internal/integrations/groq"
)

const (
	vibeTemperature = 1.2
	vibeMaxTokens   = 150
	maxSeed         = 1_000_000
)

// perspective is one of the fixed writing personas the generator rotates
// through so repeated generations for the same venue stay fresh.
type perspective struct {
	name         string
	systemPrompt string
	tone         string
}

var perspectives = []perspective{
	{
		name:         "food_blogger",
		systemPrompt: "Ești un food blogger influent din România care scrie cu entuziasm autentic despre experiențe culinare. Stil personal, descriptiv, focus pe detalii senzoriale și fotografice.",
		tone:         "Scrie ca un food blogger: personal, vizual, entuziast, cu detalii despre texturi, culori și prezentare.",
	},
	{
		name:         "local_habitual",
		systemPrompt: "Ești un local din București/Cluj care știe orașul pe dinăuntru. Recomanzi locuri ca unui prieten, cu insider tips și perspective autentice.",
		tone:         "Scrie ca un local habitual: relaxat, cu insider knowledge, recomandări oneste, știi secretele locului.",
	},
	{
		name:         "prieten",
		systemPrompt: "Ești prietenul care recomandă locuri cu căldură și autenticitate. Vorbești natural, ca într-o conversație la cafea.",
		tone:         "Scrie ca un prieten apropiat: warm, conversațional, personal, cu povești și amintiri legate de loc.",
	},
	{
		name:         "ghid",
		systemPrompt: "Ești un ghid turistic local pasionat care cunoaște istoria și contextul cultural al fiecărui loc. Informativ dar captivant.",
		tone:         "Scrie ca un ghid local: informativ, contextual, cu detalii despre istorie/zona, dar accesibil și captivant.",
	},
	{
		name:         "experienta_emotionala",
		systemPrompt: "Ești un scriitor care captează esența emoțională și atmosfera unui loc. Focus pe feelings, momente și experiența holistică.",
		tone:         "Scrie din perspectivă emoțională: atmosferă, feelings, momente speciale, experiența completă, limbaj evocativ.",
	},
}

// VibeLLM is the one-shot completion surface the generator needs;
// satisfied by *groq.Client.
type VibeLLM interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage, params groq.Params) (string, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// VibeService generates short, vivid venue descriptions from a rotating
// persona.
type VibeService struct {
	llm   VibeLLM
	model string
}

// NewVibeService creates a generator backed by the completion client.
func NewVibeService(llm VibeLLM, model string) (*VibeService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	return &VibeService{llm: llm, model: model}, nil
}

// Describe generates a vibe description for the venue. Upstream failures
// come back as typed errors with a readable message.
func (s *VibeService) Describe(ctx context.Context, loc domain.Location) (string, error) {
	if loc.Name == "" {
		return "", newError(ErrorInvalidInput, "missing_location_name", nil)
	}

	p := perspectives[pickPerspective(len(perspectives))]
	temperature := vibeTemperature
	seed := pickSeed(maxSeed)

	text, err := s.llm.Chat(ctx, s.model, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: p.systemPrompt},
		{Role: domain.RoleUser, Content: buildVibePrompt(loc, p)},
	}, groq.Params{
		Temperature: &temperature,
		MaxTokens:   vibeMaxTokens,
		Seed:        &seed,
	})
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return "", newError(ErrorRateLimited, "vibe_rate_limited", err)
		}
		return "", newError(ErrorUpstream, "vibe_generation_error", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", newError(ErrorUpstream, "vibe_empty_generation", nil)
	}
	return strings.TrimSpace(text), nil
}

func buildVibePrompt(loc domain.Location, p perspective) string {
	kind := "restaurant"
	if loc.Type == domain.TypeCafe {
		kind = "cafenea"
	}
	return fmt.Sprintf(`Generează o descriere scurtă, captivantă și vibrantă în limba română (80-100 cuvinte) pentru %s "%s" din %s.

Descriere actuală: %s

%s

Cerințe:
- Maxim 100 cuvinte
- Limbaj viu și descriptiv
- Atmosfera și experiența culinară
- Detalii senzoriale (arome, ambianță)
- Call-to-action subtil la final
- Fără introduceri generice
- Direct la subiect`, kind, loc.Name, loc.Address, loc.Description, p.tone)
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

var pickPerspective = func(n int) int {
	return rand.Intn(n)
}

var pickSeed = func(n int) int {
	return rand.Intn(n)
}
