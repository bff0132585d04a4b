package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/price"
	"github.com/samber/lo"
)

// FetchCatalog lists the OpenRouter models, filtered by the configured
// model filter.
func (c *Client) FetchCatalog(ctx context.Context) ([]model.ModelDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	hc, err := c.getHTTPClient()
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch models: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, ReadError(resp)
	}

	var list model.OpenRouterModelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode models: %w", err)
	}

	out := make([]model.ModelDescriptor, 0, len(list.Data))
	for _, m := range list.Data {
		if m.ID == "" {
			continue
		}
		if c.filter != nil {
			ok, err := c.filter.MatchString(m.ID)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, Describe(m))
	}
	return lo.UniqBy(out, func(d model.ModelDescriptor) string { return d.ModelID }), nil
}

// Describe maps a raw catalog entry to a descriptor. OpenRouter parses PDFs
// for every image-capable model, so those also count as PDF capable.
func Describe(m model.OpenRouterModel) model.ModelDescriptor {
	inputs := lo.Map(m.Architecture.InputModalities, func(s string, _ int) string { return strings.ToLower(s) })
	modality := strings.ToLower(m.Architecture.Modality)
	inputSide, _, _ := strings.Cut(modality, "->")

	multimodal := lo.Contains(inputs, "image") || strings.Contains(inputSide, "image")
	pdf := lo.Contains(inputs, "file") || multimodal
	reasoning := lo.Contains(m.SupportedParameters, "reasoning") || lo.Contains(m.SupportedParameters, "include_reasoning")

	in := price.PerMillion(m.Pricing.Prompt)
	out := price.PerMillion(m.Pricing.Completion)

	ctxLen := m.ContextLength
	if ctxLen == 0 {
		ctxLen = m.TopProvider.ContextLength
	}
	name := m.Name
	if name == "" {
		name = m.ID
	}
	return model.ModelDescriptor{
		ModelID:               m.ID,
		DisplayName:           name,
		IsMultimodal:          multimodal,
		IsFree:                strings.HasSuffix(m.ID, ":free") || (in == 0 && out == 0),
		SupportsReasoning:     reasoning,
		SupportsPDF:           pdf,
		InputPricePerMillion:  in,
		OutputPricePerMillion: out,
		CostBand:              price.CostBand(in, out),
		ContextLength:         ctxLen,
		Active:                true,
	}
}
