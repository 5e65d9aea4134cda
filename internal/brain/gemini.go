package brain

import (
	"context"
	"encoding/json"

	"google.golang.org/genai"
)

// geminiTools renders toolDefs as one Gemini tool with a declaration each.
func geminiTools() []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(toolDefs))
	for _, def := range toolDefs {
		decl := &genai.FunctionDeclaration{Name: string(def.Tool), Description: def.Description}
		if len(def.Params) > 0 {
			props := make(map[string]*genai.Schema, len(def.Params))
			for _, p := range def.Params {
				props[p.Name] = &genai.Schema{Type: genai.TypeInteger, Description: p.Description}
			}
			decl.Parameters = &genai.Schema{Type: genai.TypeObject, Properties: props}
		}
		decls = append(decls, decl)
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// geminiProvider talks to the Gemini generateContent API.
type geminiProvider struct {
	client    *genai.Client
	model     string
	maxTokens int32
	tools     []*genai.Tool
}

func newGeminiProvider(ctx context.Context, apiKey, model string, maxTokens int64) (*geminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &geminiProvider{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokens),
		tools:     geminiTools(),
	}, nil
}

func (g *geminiProvider) Send(ctx context.Context, system string, turns []Turn) (Reply, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, geminiContents(turns), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, ""),
		MaxOutputTokens:   g.maxTokens,
		Tools:             g.tools,
	})
	if err != nil {
		return Reply{}, err
	}

	reply := Reply{Text: resp.Text()}
	for _, fc := range resp.FunctionCalls() {
		raw, _ := json.Marshal(fc.Args)
		reply.Calls = append(reply.Calls, parseCall(fc.ID, fc.Name, raw))
	}
	return reply, nil
}

// geminiContents maps turns onto Gemini contents. Gemini matches function
// responses by name, so results carry the tool they answer.
func geminiContents(turns []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.RoleUser
		if t.Speaker == Pet {
			role = genai.RoleModel
		}

		var parts []*genai.Part
		if t.Text != "" {
			parts = append(parts, genai.NewPartFromText(t.Text))
		}
		for _, call := range t.Calls {
			part := genai.NewPartFromFunctionCall(string(call.Tool), call.Args.argMap())
			part.FunctionCall.ID = call.ID
			parts = append(parts, part)
		}
		for _, r := range t.Results {
			out := map[string]any{"output": r.Output}
			if r.Failed {
				out["error"] = true
			}
			part := genai.NewPartFromFunctionResponse(string(r.Tool), out)
			part.FunctionResponse.ID = r.CallID
			parts = append(parts, part)
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.Role(role)))
	}
	return contents
}
