package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/careloop/health-coach/agent/contract"
	"github.com/careloop/health-coach/agent/tooladapter"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

// TurnInput is one user turn addressed to the health coach.
type TurnInput struct {
	SessionID string
	Text      string
}

// TurnOutput carries the reply plus every tool outcome produced during the
// turn. Theme is set when the turn switched the UI color scheme.
type TurnOutput struct {
	Reply        string                  `json:"reply"`
	ToolOutcomes []contractx.ToolOutcome `json:"tool_outcomes,omitempty"`
	Theme        string                  `json:"theme,omitempty"`
}

type coachLLMOutput struct {
	Message string `json:"message"`
}

// Coach is the conversational layer: it plans tool calls with the chat
// model, executes them through the ToolGateway, and finalizes a reply.
// The medication store itself stays authoritative; the coach only reads it
// to give the model context about what is already saved.
type Coach struct {
	store contractx.MedicationStore
	tools contractx.ToolGateway

	toolRunner       compose.Runnable[map[string]any, *schema.Message]
	structuredRunner compose.Runnable[map[string]any, coachLLMOutput]
	graphRunner      compose.Runnable[TurnInput, TurnOutput]

	allowedTools map[string]struct{}
}

func New(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	store contractx.MedicationStore,
	tools contractx.ToolGateway,
) (*Coach, error) {
	if store == nil {
		return nil, errors.New("medication store is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}

	structuredRunner, err := compileStructuredGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile structured coach graph: %v", contractx.ErrModelInvoke, err)
	}

	infos := coachTools()
	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind coach tools: %v", contractx.ErrModelInvoke, err)
	}
	toolRunner, err := compileToolPlanningGraph(ctx, toolModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile tool planning graph: %v", contractx.ErrModelInvoke, err)
	}

	allowedTools := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		if info == nil || strings.TrimSpace(info.Name) == "" {
			continue
		}
		allowedTools[info.Name] = struct{}{}
	}

	c := &Coach{
		store:            store,
		tools:            tools,
		toolRunner:       toolRunner,
		structuredRunner: structuredRunner,
		allowedTools:     allowedTools,
	}

	graphRunner, err := c.compileTurnGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: compile turn graph: %v", contractx.ErrModelInvoke, err)
	}
	c.graphRunner = graphRunner

	return c, nil
}

// HandleTurn runs one full conversational turn.
func (c *Coach) HandleTurn(ctx context.Context, sessionID string, text string) (TurnOutput, error) {
	return c.graphRunner.Invoke(ctx, TurnInput{
		SessionID: sessionID,
		Text:      text,
	})
}

func (c *Coach) planTools(ctx context.Context, st *turnState) (*turnState, error) {
	payload := map[string]any{
		"mode":              "act",
		"user_message":      st.Text,
		"known_medications": c.knownMedications(),
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal turn payload: %v", contractx.ErrValidation, err)
	}

	msg, err := c.toolRunner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: tool planning invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: empty tool planning response", contractx.ErrSchemaViolation)
	}

	invocations, err := toInvocations(msg.ToolCalls)
	if err != nil {
		return nil, err
	}
	for _, inv := range invocations {
		if _, ok := c.allowedTools[inv.Tool]; !ok {
			return nil, fmt.Errorf("%w: tool=%s is not bound for the coach", contractx.ErrSchemaViolation, inv.Tool)
		}
	}

	st.Invocations = invocations
	st.DirectReply = strings.TrimSpace(msg.Content)
	if len(invocations) == 0 && st.DirectReply == "" {
		return nil, fmt.Errorf("%w: turn produced neither tools nor a reply", contractx.ErrSchemaViolation)
	}
	return st, nil
}

func (c *Coach) runTools(ctx context.Context, st *turnState) (*turnState, error) {
	outcomes := make([]contractx.ToolOutcome, 0, len(st.Invocations))
	for _, inv := range st.Invocations {
		outcome := c.tools.Execute(ctx, st.SessionID, inv)
		if outcome.Tool == tooladapter.ToolSwitchTheme && outcome.Success {
			st.Theme = outcome.Theme
		}
		outcomes = append(outcomes, outcome)
	}
	st.Outcomes = outcomes
	return st, nil
}

func (c *Coach) finalize(ctx context.Context, st *turnState) (TurnOutput, error) {
	payload := map[string]any{
		"mode":              "finalize",
		"user_message":      st.Text,
		"known_medications": c.knownMedications(),
		"tool_outcomes":     st.Outcomes,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return TurnOutput{}, fmt.Errorf("%w: marshal finalize payload: %v", contractx.ErrValidation, err)
	}

	out, err := c.structuredRunner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return TurnOutput{}, fmt.Errorf("%w: finalize invoke: %v", contractx.ErrModelInvoke, err)
	}

	message := strings.TrimSpace(out.Message)
	if message == "" {
		return TurnOutput{}, fmt.Errorf("%w: coach reply is empty", contractx.ErrSchemaViolation)
	}

	return TurnOutput{
		Reply:        message,
		ToolOutcomes: st.Outcomes,
		Theme:        st.Theme,
	}, nil
}

func (c *Coach) knownMedications() []string {
	records := c.store.List()
	names := make([]string, 0, len(records))
	for _, record := range records {
		names = append(names, record.Name)
	}
	return names
}

func toInvocations(calls []schema.ToolCall) ([]contractx.ToolInvocation, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	invocations := make([]contractx.ToolInvocation, 0, len(calls))
	for _, call := range calls {
		tool := strings.TrimSpace(call.Function.Name)
		if tool == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		params := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &params); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, tool, err)
			}
		}

		invocations = append(invocations, contractx.ToolInvocation{
			Tool:   tool,
			Params: params,
		})
	}
	return invocations, nil
}

func coachTools() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: tooladapter.ToolRecordMedication,
			Desc: "Record a medication when the user mentions taking, buying, or using any medication. The system automatically prevents duplicates, so it is safe to call each time a medication is mentioned.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"medication_name": {Type: schema.String, Desc: "Properly formatted medication name", Required: true},
			}),
		},
		{
			Name: tooladapter.ToolSwitchTheme,
			Desc: "Switch the chat interface between light and dark color schemes. Accepts 'light' or 'dark'.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"theme": {Type: schema.String, Desc: "Requested color scheme", Required: true},
			}),
		},
	}
}
