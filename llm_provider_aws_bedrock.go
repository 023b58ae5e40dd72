package kamba

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// BedrockLLMProvider implements the LLMProvider interface using AWS Bedrock's Converse API.
type BedrockLLMProvider struct {
	client BedrockClient
	model  string
}

// BedrockProviderConfig holds the configuration options for creating a Bedrock provider.
type BedrockProviderConfig struct {
	Client BedrockClient
	Model  string
}

// NewBedrockLLMProvider creates a new Bedrock provider with the specified configuration.
// If no model is specified, it defaults to Claude 3.5 Sonnet.
func NewBedrockLLMProvider(config BedrockProviderConfig) *BedrockLLMProvider {
	if config.Model == "" {
		config.Model = "anthropic.claude-3-5-sonnet-20240620-v1:0"
	}

	return &BedrockLLMProvider{
		client: config.Client,
		model:  config.Model,
	}
}

var bedrockImageFormats = map[string]types.ImageFormat{
	"image/png":  types.ImageFormatPng,
	"image/jpeg": types.ImageFormatJpeg,
	"image/gif":  types.ImageFormatGif,
	"image/webp": types.ImageFormatWebp,
}

// GetResponse generates a response using Bedrock's API for the given messages and configuration.
func (p *BedrockLLMProvider) GetResponse(ctx context.Context, messages []LLMMessage, config LLMRequestConfig) (LLMResponse, error) {
	startTime := time.Now()

	var system []types.SystemContentBlock
	var bedrockMessages []types.Message
	for _, msg := range messages {
		if msg.Role == SystemRole {
			system = append(system, &types.SystemContentBlockMemberText{Value: msg.Text})
			continue
		}

		role := types.ConversationRoleUser
		if msg.Role == AssistantRole {
			role = types.ConversationRoleAssistant
		}

		content := []types.ContentBlock{&types.ContentBlockMemberText{Value: msg.Text}}
		if msg.Attachment != "" && role == types.ConversationRoleUser {
			uri, err := ParseDataURI(msg.Attachment)
			if err != nil {
				return LLMResponse{}, err
			}
			format, ok := bedrockImageFormats[uri.MIMEType]
			if !ok {
				return LLMResponse{}, fmt.Errorf("unsupported image type for bedrock: %s", uri.MIMEType)
			}
			content = append(content, &types.ContentBlockMemberImage{
				Value: types.ImageBlock{
					Format: format,
					Source: &types.ImageSourceMemberBytes{Value: uri.Data},
				},
			})
		}

		bedrockMessages = append(bedrockMessages, types.Message{Role: role, Content: content})
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(p.model),
		Messages: bedrockMessages,
		System:   system,
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(float32(config.Temperature)),
			TopP:        aws.Float32(float32(config.TopP)),
			MaxTokens:   aws.Int32(int32(config.MaxToken)),
		},
	}

	output, err := p.client.Converse(ctx, input)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("bedrock converse failed: %w", err)
	}

	var sb strings.Builder
	if msgOutput, ok := output.Output.(*types.ConverseOutputMemberMessage); ok {
		for _, block := range msgOutput.Value.Content {
			if textBlock, ok := block.(*types.ContentBlockMemberText); ok {
				sb.WriteString(textBlock.Value)
			}
		}
	}

	response := LLMResponse{
		Text:           sb.String(),
		CompletionTime: time.Since(startTime).Seconds(),
	}
	if output.Usage != nil {
		response.TotalInputToken = int(aws.ToInt32(output.Usage.InputTokens))
		response.TotalOutputToken = int(aws.ToInt32(output.Usage.OutputTokens))
	}
	return response, nil
}
