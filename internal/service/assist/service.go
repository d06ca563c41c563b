package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/lumi-hq/lumi-inbox/backend/internal/analysis/mood"
	"github.com/lumi-hq/lumi-inbox/backend/internal/config"
	"github.com/lumi-hq/lumi-inbox/backend/internal/model/inbox"
)

const (
	historyLimit    = 10
	suggestionQuery = "Com base na conversa acima, escreva a próxima resposta do atendente."
	riskNote        = "Esta conversa está em risco de abandono; priorize uma resposta que mantenha o cliente engajado."
)

// Service 基于会话记录生成坐席回复建议。
type Service struct {
	chain     compose.Runnable[map[string]any, *schema.Message]
	profile   Profile
	streaming bool
	logger    *zap.Logger
}

// NewService 使用 Ark 配置创建回复建议服务。
func NewService(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	profile := DefaultProfile()
	profile.Company = cfg.Company
	profile.Tone = ParseTone(cfg.Tone)

	return NewWithModel(ctx, chatModel, profile, cfg.StreamResponse, logger)
}

// NewWithModel 使用给定模型编译提示词链。
func NewWithModel(ctx context.Context, chatModel model.ChatModel, profile Profile, streaming bool, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile suggestion chain: %w", err)
	}

	return &Service{
		chain:     runnable,
		profile:   profile,
		streaming: streaming,
		logger:    logger,
	}, nil
}

// StreamingEnabled 指示是否开启 SSE 流式输出。
func (s *Service) StreamingEnabled() bool {
	return s.streaming
}

// Suggest 一次性生成完整建议。
func (s *Service) Suggest(ctx context.Context, conv inbox.Conversation, messages []inbox.Message) (*schema.Message, error) {
	response, err := s.chain.Invoke(ctx, s.buildChainInput(conv, messages))
	if err != nil {
		return nil, fmt.Errorf("failed to run suggestion chain: %w", err)
	}

	s.logger.Debug("suggestion generated",
		zap.String("conversation_id", conv.ID),
		zap.Int("length", len(response.Content)))
	return response, nil
}

// StreamSuggestion 以流的形式返回建议片段。
func (s *Service) StreamSuggestion(ctx context.Context, conv inbox.Conversation, messages []inbox.Message) (*schema.StreamReader[*schema.Message], error) {
	if !s.streaming {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	stream, err := s.chain.Stream(ctx, s.buildChainInput(conv, messages))
	if err != nil {
		return nil, fmt.Errorf("failed to stream suggestion chain output: %w", err)
	}
	return stream, nil
}

func (s *Service) buildChainInput(conv inbox.Conversation, messages []inbox.Message) map[string]any {
	return map[string]any{
		"system":  s.buildSystemPrompt(conv, mood.Analyze(messages)),
		"history": buildHistoryMessages(messages),
		"query":   suggestionQuery,
	}
}

// buildSystemPrompt 在坐席设定后追加客户情绪指引与流失风险提示，两者相互独立。
func (s *Service) buildSystemPrompt(conv inbox.Conversation, decision mood.Decision) string {
	guidance := decision.Guidance()
	if guidance == "" && !conv.AtRisk() {
		return s.profile.SystemPrompt(conv.Name)
	}

	var builder strings.Builder
	builder.WriteString(s.profile.SystemPrompt(conv.Name))
	builder.WriteString("\n")
	if guidance != "" {
		builder.WriteString("\nHumor do cliente: ")
		builder.WriteString(guidance)
	}
	if conv.AtRisk() {
		builder.WriteString("\n")
		builder.WriteString(riskNote)
	}
	return builder.String()
}

// buildHistoryMessages 取最近的对话轮次，客户映射为 user，坐席映射为 assistant。
func buildHistoryMessages(messages []inbox.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > historyLimit {
		startIdx = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Role {
		case inbox.RoleClient:
			history = append(history, schema.UserMessage(msg.Text))
		case inbox.RoleAgent:
			history = append(history, schema.AssistantMessage(msg.Text, nil))
		}
	}
	return history
}
