package kamba

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

const personaPrompt = `You are {{ .Name }}, an AI assistant specialized in providing information about Angola. ` +
	`Your persona is friendly, knowledgeable, and helpful. You always respond in Angolan Portuguese ` +
	`unless the user speaks in another language.`

const queryPrompt = `{{- if .HasImage }}The user has provided an image. Analyze the image and the user's query to provide a comprehensive response.

{{ end -}}
User query: {{ .Query | trim | quote }}

Based on this query, provide a concise and helpful response.`

const quickRepliesPrompt = `You are a helpful AI assistant that suggests quick reply options based on the current conversation context.

The user has provided the following conversation history:
{{ .ConversationHistory | trim }}

Based on this conversation history, suggest {{ .Count }} quick reply options that the user can choose from to continue the conversation.
Return a JSON object of the form {"suggestions": ["...", "..."]}. Do not include any other text in your response.`

const titlePrompt = `Based on the following conversation history, generate a short, concise title ({{ .MinWords }}-{{ .MaxWords }} words) in Portuguese for the chat.

Conversation History:
{{ .ConversationHistory | trim }}

The title should summarize the main topic of the conversation. Do not include "Conversa sobre" or any similar prefix.
Return a JSON object of the form {"title": "..."}. Do not include any other text in your response.`

// PromptSet holds the parsed templates the assistant renders for each operation.
type PromptSet struct {
	persona      *template.Template
	query        *template.Template
	quickReplies *template.Template
	title        *template.Template
}

// NewPromptSet parses the built-in prompt templates.
func NewPromptSet() (*PromptSet, error) {
	parse := func(name, text string) (*template.Template, error) {
		tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s prompt: %w", name, err)
		}
		return tmpl, nil
	}

	var ps PromptSet
	var err error
	if ps.persona, err = parse("persona", personaPrompt); err != nil {
		return nil, err
	}
	if ps.query, err = parse("query", queryPrompt); err != nil {
		return nil, err
	}
	if ps.quickReplies, err = parse("quick-replies", quickRepliesPrompt); err != nil {
		return nil, err
	}
	if ps.title, err = parse("title", titlePrompt); err != nil {
		return nil, err
	}
	return &ps, nil
}

func (ps *PromptSet) Persona(name string) (string, error) {
	return render(ps.persona, map[string]interface{}{"Name": name})
}

func (ps *PromptSet) Query(query string, hasImage bool) (string, error) {
	return render(ps.query, map[string]interface{}{"Query": query, "HasImage": hasImage})
}

func (ps *PromptSet) QuickReplies(conversationHistory string, count int) (string, error) {
	return render(ps.quickReplies, map[string]interface{}{
		"ConversationHistory": conversationHistory,
		"Count":               count,
	})
}

func (ps *PromptSet) Title(conversationHistory string) (string, error) {
	return render(ps.title, map[string]interface{}{
		"ConversationHistory": conversationHistory,
		"MinWords":            3,
		"MaxWords":            5,
	})
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
