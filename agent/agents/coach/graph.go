package coach

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/careloop/health-coach/agent/contract"
)

type turnState struct {
	SessionID string
	Text      string

	Invocations []contractx.ToolInvocation
	DirectReply string
	Outcomes    []contractx.ToolOutcome
	Theme       string
}

func (c *Coach) compileTurnGraph(ctx context.Context) (compose.Runnable[TurnInput, TurnOutput], error) {
	graph := compose.NewGraph[TurnInput, TurnOutput]()

	if err := graph.AddLambdaNode("validate_turn",
		compose.InvokableLambda(func(ctx context.Context, in TurnInput) (*turnState, error) {
			return validateTurn(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_turn: %w", err)
	}

	if err := graph.AddLambdaNode("plan_tools",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			if in == nil {
				return nil, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
			}
			return c.planTools(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node plan_tools: %w", err)
	}

	if err := graph.AddLambdaNode("run_tools",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (TurnOutput, error) {
			if in == nil {
				return TurnOutput{}, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
			}
			st, err := c.runTools(ctx, in)
			if err != nil {
				return TurnOutput{}, err
			}
			return c.finalize(ctx, st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node run_tools: %w", err)
	}

	if err := graph.AddLambdaNode("direct_reply",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (TurnOutput, error) {
			if in == nil {
				return TurnOutput{}, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
			}
			return TurnOutput{Reply: in.DirectReply}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node direct_reply: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *turnState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
			}
			if len(in.Invocations) > 0 {
				return "run_tools", nil
			}
			return "direct_reply", nil
		},
		map[string]bool{
			"run_tools":    true,
			"direct_reply": true,
		},
	)

	if err := graph.AddBranch("plan_tools", branch); err != nil {
		return nil, fmt.Errorf("add turn branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_turn"},
		{"validate_turn", "plan_tools"},
		{"run_tools", compose.END},
		{"direct_reply", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("coach.handle_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}

func validateTurn(in TurnInput) (*turnState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}
	return &turnState{
		SessionID: sessionID,
		Text:      text,
	}, nil
}

func compileToolPlanningGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add tool planning prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add tool planning model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add tool planning edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add tool planning edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add tool planning edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("coach.tool_planning_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile tool planning graph: %w", err)
	}
	return runner, nil
}

func compileStructuredGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[map[string]any, coachLLMOutput], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	parser := schema.NewMessageJSONParser[coachLLMOutput](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[map[string]any, coachLLMOutput]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add structured prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add structured model node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_json", compose.MessageParser(parser)); err != nil {
		return nil, fmt.Errorf("add structured parser node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", "parse_json"},
		{"parse_json", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add structured edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("coach.structured_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile structured graph: %w", err)
	}
	return runner, nil
}
