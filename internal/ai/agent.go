package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"paper-trader/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// Agent backs the two collaborator interfaces the pipeline consumes —
// RequestParser and ResponseComposer — with an OpenAI model. Parsing uses
// strict structured output so downstream stages only ever see canonical
// field shapes.
type Agent struct {
	client *openai.Client
}

var (
	_ core.RequestParser    = (*Agent)(nil)
	_ core.ResponseComposer = (*Agent)(nil)
)

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

// parsedRequest is the structured-output shape for request interpretation.
type parsedRequest struct {
	Lines []core.RequestLine `json:"lines" jsonschema_description:"Every item the customer asked for, with the quantity requested. Omit items with no stated or inferable quantity."`
}

// Parse extracts structured line items from a free-text customer request.
// The model only interprets language; it never decides availability or
// pricing — those are the pipeline's deterministic stages.
func (a *Agent) Parse(ctx context.Context, rawText string, requestDate time.Time) ([]core.RequestLine, error) {
	prompt := fmt.Sprintf(`You extract order line items from customer requests sent to a paper supply company.
Rules:
1. List every item the customer asks for, with the requested quantity.
2. Keep the customer's own phrasing for item names; do not rename items.
3. Quantities are positive integers. "A ream" is 500 sheets, "a box" of plates/cups is 100 units.
4. Do not invent items the customer did not mention.

Request date: %s
Customer request: %s`, requestDate.Format("2006-01-02"), rawText)

	schemaMap, err := schemaFor(parsedRequest{})
	if err != nil {
		return nil, err
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "order_line_items",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("Structured line items extracted from a customer request"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var parsed parsedRequest
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}

	var lines []core.RequestLine
	for _, l := range parsed.Lines {
		if strings.TrimSpace(l.ItemName) == "" || l.Quantity <= 0 {
			continue
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// Compose writes the customer-facing reply from the pipeline's accumulated
// outputs. The prompt exposes only what may appear in the reply — fulfilled
// and unfulfilled lines, charges, the delivery estimate — never reference
// prices or margins.
func (a *Agent) Compose(ctx context.Context, in core.ComposeInput) (string, error) {
	var facts strings.Builder
	for _, s := range in.Sales {
		if s.CommittedUnits == 0 {
			fmt.Fprintf(&facts, "- %s: could not be fulfilled (sold out)\n", s.ItemName)
			continue
		}
		fmt.Fprintf(&facts, "- %s: %d units confirmed for $%s", s.ItemName, s.CommittedUnits, s.Amount.StringFixed(2))
		if s.CommittedUnits < s.RequestedUnits {
			fmt.Fprintf(&facts, " (partial — %d requested)", s.RequestedUnits)
		}
		facts.WriteString("\n")
	}
	for _, u := range in.Quote.Unfulfillable {
		fmt.Fprintf(&facts, "- %s: not available (%s)\n", u.ItemName, u.Reason)
	}

	prompt := fmt.Sprintf(`You are the customer service voice of a paper supply company.
Write a short, warm, professional reply to the customer request below.
Rules:
1. State exactly which items were fulfilled, quantities, and amounts charged. Use only the facts given.
2. Clearly explain anything that could not be fulfilled. Do not promise alternatives we did not offer.
3. Mention the estimated delivery date for confirmed items.
4. Round the order total to whole dollars.
5. Never mention internal systems, stock counts, or cost information.
6. Start with a greeting, end with a sign-off.

Customer request (dated %s): %s

Order facts:
%s
Estimated delivery: %s`,
		in.RequestDate.Format("2006-01-02"), in.RawText, facts.String(),
		in.DeliveryEstimate.Format("2006-01-02"))

	resp, err := a.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai responses error: %w", err)
	}
	content := resp.OutputText()
	if content == "" {
		return "", fmt.Errorf("empty response content")
	}
	return content, nil
}

func schemaFor(v any) (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaJSON, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return schemaMap, nil
}
